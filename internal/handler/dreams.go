package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
	"github.com/aryan0dhankhar/dreammatch/internal/security/middleware"
	"github.com/aryan0dhankhar/dreammatch/internal/service"
)

// DreamHandler serves the dream journal and match endpoints
type DreamHandler struct {
	dreams *service.DreamService
	logger *slog.Logger
}

// NewDreamHandler creates a new dream handler
func NewDreamHandler(dreams *service.DreamService, logger *slog.Logger) *DreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DreamHandler{dreams: dreams, logger: logger}
}

// Submit handles POST /api/dreams
func (h *DreamHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in service.DreamInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}

	sub, err := h.dreams.SubmitDream(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// List handles GET /api/dreams
func (h *DreamHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	dreams, err := h.dreams.ListDreams(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if dreams == nil {
		dreams = []*domain.Dream{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"dreams": dreams})
}

// Get handles GET /api/dreams/{id}
func (h *DreamHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	dream, err := h.dreams.GetDream(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, dream)
}

// ListMatches handles GET /api/matches
func (h *DreamHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	matches, err := h.dreams.ListMatches(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

// Accept handles POST /api/matches/{id}/accept
func (h *DreamHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, domain.MatchStatusAccepted)
}

// Reject handles POST /api/matches/{id}/reject
func (h *DreamHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, domain.MatchStatusRejected)
}

func (h *DreamHandler) decide(w http.ResponseWriter, r *http.Request, status domain.MatchStatus) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	m, err := h.dreams.SetMatchStatus(r.Context(), userID, r.PathValue("id"), status)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ScoreRequest carries the two dreams compared by POST /api/score
type ScoreRequest struct {
	A service.DreamInput `json:"a"`
	B service.DreamInput `json:"b"`
}

// Score handles POST /api/score
func (h *DreamHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	res, err := h.dreams.Score(req.A, req.B)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}
