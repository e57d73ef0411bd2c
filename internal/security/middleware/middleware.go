package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aryan0dhankhar/dreammatch/internal/security/audit"
	"github.com/aryan0dhankhar/dreammatch/internal/security/auth"
	"github.com/aryan0dhankhar/dreammatch/internal/security/ratelimit"
)

type ClaimsContextKey struct{}

// Credential endpoints get their own per-address limit
const (
	credentialRequests = 10
	credentialWindow   = time.Minute
)

// isPublic reports whether a path is served without a bearer token.
// The websocket endpoint authenticates with a query token instead.
func isPublic(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics",
		"/api/auth/register", "/api/auth/login", "/api/score", "/ws/matches":
		return true
	}
	return false
}

func isCredentialEndpoint(path string) bool {
	return path == "/api/auth/register" || path == "/api/auth/login"
}

func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"error":"invalid auth"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				log.Warn("rejected token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware limits authenticated callers by user id and anonymous
// callers by client address. Credential endpoints use a tighter per-address limit.
func RateLimitMiddleware(limiter *ratelimit.Limiter, proxies TrustedProxies, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "/healthz" || path == "/readyz" || path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			userID := UserIDFromContext(r.Context())
			ip := proxies.ClientIP(r)
			var allowed bool
			switch {
			case isCredentialEndpoint(path):
				allowed = limiter.AllowStrict(ip, credentialRequests, credentialWindow)
			case userID != "":
				allowed = limiter.Allow("user:" + userID)
			default:
				allowed = limiter.Allow("ip:" + ip)
			}

			if !allowed {
				log.Warn("rate limit exceeded",
					slog.String("path", path),
					slog.String("user_id", userID),
					slog.String("client_ip", ip),
				)
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records refused requests (403, 429) for authenticated callers
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status == http.StatusForbidden || rec.status == http.StatusTooManyRequests {
				auditLog.LogDenied(r.Context(), UserIDFromContext(r.Context()),
					r.Method+" "+r.URL.Path+" -> "+http.StatusText(rec.status))
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer (websocket hijack)
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c, ok := ctx.Value(ClaimsContextKey{}).(*auth.Claims); ok {
		return c
	}
	return nil
}

// UserIDFromContext returns the authenticated user's id, or "" for anonymous requests
func UserIDFromContext(ctx context.Context) string {
	if c := GetClaimsFromContext(ctx); c != nil {
		return c.UserID
	}
	return ""
}

// WithClaims attaches claims to ctx the way JWTMiddleware does
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey{}, claims)
}
