package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type requestIDKey struct{}

// WithRequestID stores the request id for audit entries written further down the call chain
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request id stored by WithRequestID, or ""
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", RequestID(ctx)),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogDreamSubmitted(ctx context.Context, userID, dreamID string, matches int) {
	al.LogAction(ctx, userID, "submit", "dream", dreamID, "success", fmt.Sprintf("matches=%d", matches))
}

func (al *Logger) LogMatchDecision(ctx context.Context, userID, matchID, status string) {
	al.LogAction(ctx, userID, "decide", "match", matchID, status, "")
}

func (al *Logger) LogAccountDeleted(ctx context.Context, userID string, dreams int) {
	al.LogAction(ctx, userID, "delete", "account", userID, "success", fmt.Sprintf("dreams_removed=%d", dreams))
}

func (al *Logger) LogDenied(ctx context.Context, userID, reason string) {
	al.LogAction(ctx, userID, "access_denied", "api", "", "denied", reason)
}
