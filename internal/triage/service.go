package triage

import (
	"context"
	"encoding/json"
	"time"

	"triage-assistant/internal/guidance"
	"triage-assistant/internal/llm"
	"triage-assistant/internal/platform/logger"
)

const (
	turnTemperature = 0.2
	turnMaxTokens   = 300
)

// Turn response kinds. The model must answer with exactly one of these.
const (
	KindQuestion = "question"
	KindAnalysis = "analysis"
	KindDecision = "decision"
)

// TurnResponse is the validated, tagged response for one guidance turn.
// Type selects which of the optional fields are meaningful.
type TurnResponse struct {
	Type string `json:"type"`

	// question / decision
	Text string `json:"text,omitempty"`

	// question
	ExpectedFormat string `json:"expected_format,omitempty"`

	// analysis
	Summary string   `json:"summary,omitempty"`
	Urgency string   `json:"urgency,omitempty"`
	Advice  []string `json:"advice,omitempty"`

	// decision
	Options []string `json:"options,omitempty"`
}

// fallbackQuestion is returned whenever the model is unavailable or answers
// outside the contract. Guidance turns never surface a hard failure.
func fallbackQuestion() TurnResponse {
	return TurnResponse{
		Type:           KindQuestion,
		Text:           "Can you tell me more about your symptoms?",
		ExpectedFormat: "Please describe what you're experiencing in detail",
	}
}

// safeQuestion covers a 2xx completion whose content was not the JSON we
// demanded.
func safeQuestion() TurnResponse {
	return TurnResponse{
		Type:           KindQuestion,
		Text:           "Could you provide more details about your symptoms?",
		ExpectedFormat: "Please describe what you're experiencing",
	}
}

// Service runs one guidance turn: build the schema, match symptoms,
// aggregate guidance, compose the prompt, call the model and validate its
// answer. The pipeline ahead of the LLM call is pure and synchronous.
type Service struct {
	rules   *guidance.RuleTable
	llm     llm.Client
	timeout time.Duration
}

func NewService(rules *guidance.RuleTable, client llm.Client, timeout time.Duration) *Service {
	return &Service{rules: rules, llm: client, timeout: timeout}
}

// Message answers one guidance turn. It never returns an error: every
// failure path degrades to a deterministic question of the same shape.
func (s *Service) Message(ctx context.Context, answers map[string]string, userMessage string) TurnResponse {
	schema := BuildSchema(answers)
	bundle := s.rules.GuidanceFor(schema.CurrentComplaint)
	prompt := ComposeFullPrompt(schema, bundle, userMessage)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	content, err := s.llm.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: turnTemperature,
		MaxTokens:   turnMaxTokens,
		JSONObject:  true,
	})
	if err != nil {
		logger.WithField("error", err.Error()).Warn("guidance turn falling back")
		return fallbackQuestion()
	}

	var resp TurnResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return safeQuestion()
	}
	switch resp.Type {
	case KindQuestion, KindAnalysis, KindDecision:
		return resp
	default:
		return fallbackQuestion()
	}
}
