package handler

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/dreammatch/internal/observability/metrics"
	"github.com/aryan0dhankhar/dreammatch/internal/security/audit"
	"github.com/aryan0dhankhar/dreammatch/internal/security/auth"
	"github.com/aryan0dhankhar/dreammatch/internal/security/middleware"
	"github.com/aryan0dhankhar/dreammatch/internal/security/ratelimit"
)

const defaultMaxBody = 1 << 20

// RouterConfig wires handlers and security components into the HTTP API
type RouterConfig struct {
	Auth          *AuthHandler
	Dreams        *DreamHandler
	Health        *HealthHandler
	Notifications *NotificationsHandler

	Tokens         *auth.TokenManager
	Limiter        *ratelimit.Limiter
	Audit          *audit.Logger
	AllowedOrigins []string
	TrustedProxies middleware.TrustedProxies
	MaxBodyBytes   int64
	Logger         *slog.Logger
}

// NewRouter builds the API handler.
// Chain: request id -> otelhttp -> metrics -> CORS -> JWT -> audit -> rate limit -> body checks -> mux.
// The websocket stream skips the wrapping writers so the connection can be hijacked.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", cfg.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", cfg.Auth.Login)
	mux.HandleFunc("POST /api/auth/change-password", cfg.Auth.ChangePassword)
	mux.HandleFunc("DELETE /api/account", cfg.Auth.DeleteAccount)

	mux.HandleFunc("POST /api/dreams", cfg.Dreams.Submit)
	mux.HandleFunc("GET /api/dreams", cfg.Dreams.List)
	mux.HandleFunc("GET /api/dreams/{id}", cfg.Dreams.Get)
	mux.HandleFunc("GET /api/matches", cfg.Dreams.ListMatches)
	mux.HandleFunc("POST /api/matches/{id}/accept", cfg.Dreams.Accept)
	mux.HandleFunc("POST /api/matches/{id}/reject", cfg.Dreams.Reject)
	mux.HandleFunc("POST /api/score", cfg.Dreams.Score)

	mux.HandleFunc("GET /healthz", cfg.Health.Health)
	mux.HandleFunc("GET /readyz", cfg.Health.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	var api http.Handler = mux
	api = middleware.LimitBody(maxBody)(api)
	api = middleware.ValidateJSONContentType(log)(api)
	api = middleware.RateLimitMiddleware(cfg.Limiter, cfg.TrustedProxies, log)(api)
	api = middleware.AuditMiddleware(cfg.Audit)(api)
	api = middleware.JWTMiddleware(cfg.Tokens, log)(api)
	api = middleware.CORS(cfg.AllowedOrigins)(api)
	api = metrics.HTTPMetricsMiddleware(api)
	api = otelhttp.NewHandler(api, "dreammatch.http",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/readyz" && r.URL.Path != "/metrics"
		}),
	)

	root := http.NewServeMux()
	if cfg.Notifications != nil {
		root.Handle("GET /ws/matches", cfg.Notifications)
	}
	root.Handle("/", api)
	return middleware.RequestID(log)(root)
}
