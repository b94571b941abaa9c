package report

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"triage-assistant/internal/platform/logger"
)

type Handler struct {
	synth    *Synthesizer
	notifier *Notifier
}

// NewHandler constructs the report handler. notifier may be nil when no
// doctor chat is configured.
func NewHandler(synth *Synthesizer, notifier *Notifier) *Handler {
	return &Handler{synth: synth, notifier: notifier}
}

// GenerateRequest carries the questionnaire responses plus optional
// symptom-specific clinical context.
type GenerateRequest struct {
	Responses   []QA           `json:"responses"`
	SymptomData *SymptomDetail `json:"symptom_data,omitempty"`
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	rep := h.synth.Synthesize(r.Context(), req.Responses, req.SymptomData)

	if rep.UrgencyLevel == UrgencyRedEmergency && h.notifier != nil {
		go func(rep Report) {
			if err := h.notifier.NotifyEmergency(context.Background(), rep); err != nil {
				logger.WithField("error", err.Error()).Error("doctor notification failed")
			}
		}(rep)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rep)
}

func (h *Handler) HandlePDF(w http.ResponseWriter, r *http.Request) {
	var rep Report
	if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	pdfData, err := RenderPDF(rep)
	if err != nil {
		http.Error(w, "PDF rendering failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Write(pdfData)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/reports", h.HandleGenerate)
	r.Post("/reports/pdf", h.HandlePDF)
}
