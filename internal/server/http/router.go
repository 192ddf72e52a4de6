package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dmitrijs2005/kontur-authorization/internal/logging"
)

// NewRouter mounts the authorization endpoints under prefix, plus /health
// and /metrics at the root. The result is wrapped for OpenTelemetry tracing.
func NewRouter(h *Handler, prefix string, l logging.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(l))
	r.Use(MetricsMiddleware)

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	routes := func(r chi.Router) {
		r.Post("/", h.Authorize)
		r.Post("/tg", h.AuthorizeTelegram)
		r.Get("/check", h.CheckAuthorization)
		r.Post("/refresh", h.Refresh)
		r.Post("/refresh/tg", h.RefreshTelegram)
	}

	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		r.Group(routes)
	} else {
		r.Route(prefix, routes)
	}

	return otelhttp.NewHandler(r, "authorization")
}
