package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aryan0dhankhar/dreammatch/internal/notify"
	"github.com/aryan0dhankhar/dreammatch/internal/security/auth"
	"github.com/aryan0dhankhar/dreammatch/internal/security/middleware"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 15 * time.Second
)

// NotificationsHandler streams match events to a user over a websocket
type NotificationsHandler struct {
	hub            *notify.Hub
	tokens         *auth.TokenManager
	allowedOrigins []string
	logger         *slog.Logger
}

// NewNotificationsHandler creates a new notifications handler
func NewNotificationsHandler(hub *notify.Hub, tokens *auth.TokenManager, allowedOrigins []string, logger *slog.Logger) *NotificationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationsHandler{
		hub:            hub,
		tokens:         tokens,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

func (h *NotificationsHandler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// non-browser clients
				return true
			}
			if middleware.OriginAllowed(h.allowedOrigins, origin) {
				return true
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/matches?token=...
func (h *NotificationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if t, err := auth.ExtractToken(r.Header.Get("Authorization")); err == nil {
			token = t
		}
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	upgrader := h.upgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	sub := h.hub.Subscribe(claims.UserID)
	defer sub.Close()
	h.logger.Debug("match stream opened", slog.String("user_id", claims.UserID))

	// the client only sends control frames; a read error means it went away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		ws.SetReadLimit(512)
		_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteJSON(ev); err != nil {
				h.logger.Debug("match stream write failed",
					slog.String("user_id", claims.UserID),
					slog.String("error", err.Error()),
				)
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-gone:
			h.logger.Debug("match stream closed", slog.String("user_id", claims.UserID))
			return
		case <-r.Context().Done():
			return
		}
	}
}
