package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"triage-assistant/internal/llm"
	"triage-assistant/internal/platform/logger"
)

const (
	chatTemperature = 0.7
	chatMaxTokens   = 1024

	// FallbackMessage is returned when the LLM fails mid-conversation.
	// The endpoint never returns an empty reply.
	FallbackMessage = "I'm sorry, something went wrong. Please try again."
)

// Validation errors surfaced to the client before any external call.
var (
	ErrEmptyHistory = errors.New("history cannot be empty")
	ErrLastNotUser  = errors.New("last message in history must be from user")
)

// Service owns the chat session lifecycle. State lives in the session
// store; each turn rebuilds the full system prompt from it. Concurrent
// writers to one session id are not coordinated: last write wins.
type Service struct {
	repo    Repository
	llm     llm.Client
	timeout time.Duration
}

func NewService(repo Repository, client llm.Client, timeout time.Duration) *Service {
	return &Service{repo: repo, llm: client, timeout: timeout}
}

// Start persists a new session and returns its id along with an LLM-written
// welcome message. A failed LLM call degrades to a deterministic greeting.
func (s *Service) Start(ctx context.Context, profile []ProfileEntry, reports []SessionReport) (string, string, error) {
	id, err := s.repo.Create(ctx, profile, reports)
	if err != nil {
		return "", "", fmt.Errorf("failed to create chat session: %w", err)
	}

	systemPrompt := BuildSystemPrompt(profile, reports)
	patientName := ExtractPatientName(profile)
	hasMainReport := false
	for _, r := range reports {
		if r.IsMain {
			hasMainReport = true
			break
		}
	}

	var startInstruction string
	if hasMainReport {
		startInstruction = fmt.Sprintf(
			"Start the conversation. Greet the patient by their name (%s). "+
				"Introduce yourself as Remy. Reference their recent assessment report briefly "+
				"and ask how you can help them understand or follow up on it. "+
				"Keep it warm, concise - 2-3 sentences max.", patientName)
	} else {
		startInstruction = fmt.Sprintf(
			"Start the conversation. Greet the patient by their name (%s). "+
				"Introduce yourself as Remy. Ask how you can help them today. "+
				"Keep it warm, concise - 2-3 sentences max.", patientName)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	welcome, err := s.llm.Complete(callCtx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: startInstruction},
		},
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		logger.WithField("error", err.Error()).Warn("welcome message falling back")
		if hasMainReport {
			welcome = fmt.Sprintf("Hi %s! I'm Remy. Based on your recent report, how can I help you today?", patientName)
		} else {
			welcome = fmt.Sprintf("Hi %s! I'm Remy. How can I help you today?", patientName)
		}
	}

	return id.String(), welcome, nil
}

// Message continues an existing conversation. The history is validated
// before any store or LLM call; the session's profile and reports are
// reloaded from the store every turn.
func (s *Service) Message(ctx context.Context, sessionID string, history []Turn) (string, error) {
	if len(history) == 0 {
		return "", ErrEmptyHistory
	}
	last := history[len(history)-1]
	if last.Role != "user" {
		return "", ErrLastNotUser
	}

	id, err := uuid.Parse(sessionID)
	if err != nil {
		return "", ErrSessionNotFound
	}
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}

	systemPrompt := BuildSystemPrompt(session.ProfileData, session.Reports)

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	for _, turn := range history[:len(history)-1] {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: last.Content})

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.llm.Complete(callCtx, llm.Request{
		Messages:    messages,
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		logger.WithField("error", err.Error()).Warn("chat reply falling back")
		return FallbackMessage, nil
	}
	return reply, nil
}

// End hard-deletes the session. The next chat must start completely fresh.
func (s *Service) End(ctx context.Context, sessionID string) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return ErrSessionNotFound
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	if !deleted {
		return ErrSessionNotFound
	}
	return nil
}
