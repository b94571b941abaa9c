package triage

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GuidanceMessageRequest carries the questionnaire answers and the user's
// current free-text message for one guidance turn.
type GuidanceMessageRequest struct {
	Answers map[string]string `json:"answers"`
	Message string            `json:"message"`
}

func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req GuidanceMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	resp := h.svc.Message(r.Context(), req.Answers, req.Message)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/guidance/message", h.HandleMessage)
}
