package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/kontur-authorization/internal/common"
	"github.com/dmitrijs2005/kontur-authorization/internal/logging"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/services"
)

var validate = validator.New()

type authorizationRequest struct {
	AccountID   *int64 `json:"account_id" validate:"required,gte=0"`
	TwoFAStatus bool   `json:"two_fa_status"`
	Role        string `json:"role"`
}

type authorizationResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type checkAuthorizationResponse struct {
	AccountID   int64  `json:"account_id"`
	TwoFAStatus bool   `json:"two_fa_status"`
	Role        string `json:"role"`
	Message     string `json:"message"`
	StatusCode  int    `json:"status_code"`
}

type messageResponse struct {
	Message string `json:"message"`
}

const (
	msgVerified        = "Access-Token verified"
	msgTokenExpired    = "token expired"
	msgTokenInvalid    = "token invalid"
	msgAccountNotFound = "account not found"
	msgInternal        = "internal error"
	msgOK              = "ok"
)

// Handler serves the authorization endpoints over HTTP.
type Handler struct {
	authorizer services.Authorizer
	logger     logging.Logger
	domain     string
}

// NewHandler returns a Handler. domain is set on every cookie the handler
// writes; leave it empty for host-only cookies.
func NewHandler(a services.Authorizer, l logging.Logger, domain string) *Handler {
	return &Handler{
		authorizer: a,
		logger:     l.With("module", "http_handler"),
		domain:     domain,
	}
}

func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	h.authorize(w, r, services.FamilyStandard)
}

func (h *Handler) AuthorizeTelegram(w http.ResponseWriter, r *http.Request) {
	h.authorize(w, r, services.FamilyTelegram)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, family services.Family) {
	ctx := r.Context()

	var req authorizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
		return
	}

	h.logger.Info(ctx, "Authorization request", "family", family.String(), "account_id", *req.AccountID)

	var (
		pair *services.TokenPair
		err  error
	)
	if family == services.FamilyTelegram {
		pair, err = h.authorizer.IssueTelegram(ctx, *req.AccountID, req.TwoFAStatus, req.Role)
	} else {
		pair, err = h.authorizer.IssueStandard(ctx, *req.AccountID, req.TwoFAStatus, req.Role)
	}
	if err != nil {
		h.logger.Error(ctx, "Authorization failed", "family", family.String(), "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgInternal})
		return
	}

	h.logger.Info(ctx, "Authorized", "family", family.String(), "account_id", *req.AccountID)
	writeJSON(w, http.StatusOK, authorizationResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// CheckAuthorization always answers 200; the verdict is in the body's
// status_code.
func (h *Handler) CheckAuthorization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := h.authorizer.VerifyAccess(ctx, cookieValue(r, common.AccessTokenCookieName))
	if err != nil {
		msg := msgTokenInvalid
		if errors.Is(err, common.ErrTokenExpired) {
			msg = msgTokenExpired
		}
		h.logger.Warn(ctx, "Access token rejected", "reason", msg)
		writeJSON(w, http.StatusOK, checkAuthorizationResponse{
			AccountID:  -1,
			Message:    msg,
			StatusCode: http.StatusForbidden,
		})
		return
	}

	writeJSON(w, http.StatusOK, checkAuthorizationResponse{
		AccountID:   claims.AccountID,
		TwoFAStatus: claims.TwoFAStatus,
		Role:        claims.Role,
		Message:     msgVerified,
		StatusCode:  http.StatusOK,
	})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.refresh(w, r, services.FamilyStandard)
}

func (h *Handler) RefreshTelegram(w http.ResponseWriter, r *http.Request) {
	h.refresh(w, r, services.FamilyTelegram)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request, family services.Family) {
	ctx := r.Context()

	h.logger.Info(ctx, "Refresh request", "family", family.String())

	pair, err := h.authorizer.Refresh(ctx, cookieValue(r, common.RefreshTokenCookieName), family)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrAccountNotFound):
		h.logger.Warn(ctx, "Account not found", "family", family.String())
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: msgAccountNotFound})
		return
	case errors.Is(err, common.ErrTokenExpired):
		h.logger.Warn(ctx, "Refresh token expired", "family", family.String())
		writeJSON(w, http.StatusForbidden, messageResponse{Message: msgTokenExpired})
		return
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenKindMismatch):
		h.logger.Warn(ctx, "Refresh token invalid", "family", family.String())
		writeJSON(w, http.StatusForbidden, messageResponse{Message: msgTokenInvalid})
		return
	default:
		h.logger.Error(ctx, "Refresh failed", "family", family.String(), "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgInternal})
		return
	}

	h.setCookie(w, common.AccessTokenCookieName, pair.AccessToken, pair.AccessExpiresAt)
	h.setCookie(w, common.RefreshTokenCookieName, pair.RefreshToken, pair.RefreshExpiresAt)

	h.logger.Info(ctx, "Refreshed", "family", family.String())
	writeJSON(w, http.StatusOK, messageResponse{Message: msgOK})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: msgOK})
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
