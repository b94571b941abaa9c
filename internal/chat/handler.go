package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc    *Service
	model  string
	hasKey bool
}

func NewHandler(svc *Service, model string, hasKey bool) *Handler {
	return &Handler{svc: svc, model: model, hasKey: hasKey}
}

type StartRequest struct {
	ProfileData []ProfileEntry  `json:"profile_data"`
	Reports     []SessionReport `json:"reports"`
}

type StartResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	IsFirst   bool   `json:"is_first"`
}

func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	sessionID, welcome, err := h.svc.Start(r.Context(), req.ProfileData, req.Reports)
	if err != nil {
		http.Error(w, "Failed to start chat: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StartResponse{
		SessionID: sessionID,
		Message:   welcome,
		IsFirst:   true,
	})
}

type MessageRequest struct {
	SessionID string `json:"session_id"`
	History   []Turn `json:"history"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	reply, err := h.svc.Message(r.Context(), req.SessionID, req.History)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyHistory), errors.Is(err, ErrLastNotUser):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrSessionNotFound):
			http.Error(w, "Chat session not found: "+req.SessionID, http.StatusNotFound)
		default:
			http.Error(w, "Chat error: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MessageResponse{Message: reply})
}

type EndRequest struct {
	SessionID string `json:"session_id"`
}

type EndResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	var req EndRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.svc.End(r.Context(), req.SessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "Chat session not found: "+req.SessionID, http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to end chat: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(EndResponse{Status: "ended"})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !h.hasKey {
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "error",
			"message": "API key not configured",
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "chatbot",
		"model":   h.model,
	})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/chat/start", h.HandleStart)
	r.Post("/chat/message", h.HandleMessage)
	r.Post("/chat/end", h.HandleEnd)
	r.Get("/chat/health", h.HandleHealth)
}
