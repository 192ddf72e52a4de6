package grpc

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/kontur-authorization/internal/common"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/services"
)

var validate = validator.New()

func (s *GRPCServer) Authorize(ctx context.Context, req *AuthorizeRequest) (*TokenPairResponse, error) {
	return s.authorize(ctx, req, services.FamilyStandard)
}

func (s *GRPCServer) AuthorizeTelegram(ctx context.Context, req *AuthorizeRequest) (*TokenPairResponse, error) {
	return s.authorize(ctx, req, services.FamilyTelegram)
}

func (s *GRPCServer) authorize(ctx context.Context, req *AuthorizeRequest, family services.Family) (*TokenPairResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, toStatus(errors.Join(common.ErrorValidation, err))
	}

	var (
		pair *services.TokenPair
		err  error
	)
	if family == services.FamilyTelegram {
		pair, err = s.authorizer.IssueTelegram(ctx, req.AccountID, req.TwoFAStatus, req.Role)
	} else {
		pair, err = s.authorizer.IssueStandard(ctx, req.AccountID, req.TwoFAStatus, req.Role)
	}
	if err != nil {
		s.logger.Error(ctx, "Authorization failed", "family", family.String(), "error", err.Error())
		return nil, toStatus(err)
	}

	return toTokenPairResponse(pair), nil
}

func (s *GRPCServer) CheckAuthorization(ctx context.Context, req *CheckAuthorizationRequest) (*CheckAuthorizationResponse, error) {
	token := req.AccessToken
	if token == "" {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
				token = values[0]
			}
		}
	}
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	claims, err := s.authorizer.VerifyAccess(ctx, token)
	if err != nil {
		return nil, toStatus(err)
	}

	return &CheckAuthorizationResponse{
		AccountID:   claims.AccountID,
		TwoFAStatus: claims.TwoFAStatus,
		Role:        claims.Role,
	}, nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *RefreshRequest) (*TokenPairResponse, error) {
	return s.refresh(ctx, req, services.FamilyStandard)
}

func (s *GRPCServer) RefreshTelegram(ctx context.Context, req *RefreshRequest) (*TokenPairResponse, error) {
	return s.refresh(ctx, req, services.FamilyTelegram)
}

func (s *GRPCServer) refresh(ctx context.Context, req *RefreshRequest, family services.Family) (*TokenPairResponse, error) {
	pair, err := s.authorizer.Refresh(ctx, req.RefreshToken, family)
	if err != nil {
		return nil, toStatus(err)
	}
	return toTokenPairResponse(pair), nil
}

func toTokenPairResponse(p *services.TokenPair) *TokenPairResponse {
	return &TokenPairResponse{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		AccessExpiresAt:  p.AccessExpiresAt,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}

// toStatus maps service errors onto gRPC status codes. Internal details
// never reach the caller.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "token expired")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenKindMismatch):
		return status.Error(codes.Unauthenticated, "token invalid")
	case errors.Is(err, common.ErrAccountNotFound):
		return status.Error(codes.NotFound, "account not found")
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
