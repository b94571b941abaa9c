package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"triage-assistant/internal/llm"
	"triage-assistant/internal/platform/logger"
)

func init() {
	logger.Init()
}

type fakeRepo struct {
	sessions  map[uuid.UUID]*Session
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: make(map[uuid.UUID]*Session)}
}

func (r *fakeRepo) Create(_ context.Context, profile []ProfileEntry, reports []SessionReport) (uuid.UUID, error) {
	if r.createErr != nil {
		return uuid.Nil, r.createErr
	}
	id := uuid.New()
	r.sessions[id] = &Session{
		ID:          id,
		ProfileData: profile,
		Reports:     reports,
		CreatedAt:   time.Now(),
	}
	return id, nil
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (*Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := r.sessions[id]; !ok {
		return false, nil
	}
	delete(r.sessions, id)
	return true, nil
}

type fakeLLM struct {
	reply   string
	err     error
	lastReq llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestStartReturnsWelcome(t *testing.T) {
	repo := newFakeRepo()
	client := &fakeLLM{reply: "Hello Alice, I'm Remy!"}
	svc := NewService(repo, client, time.Second)

	id, welcome, err := svc.Start(context.Background(), sampleProfile(), nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if welcome != "Hello Alice, I'm Remy!" {
		t.Fatalf("welcome = %q", welcome)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("session id %q is not a uuid", id)
	}
	if len(repo.sessions) != 1 {
		t.Fatalf("expected 1 stored session, got %d", len(repo.sessions))
	}
	if client.lastReq.Messages[0].Role != "system" {
		t.Fatal("first message must carry the system prompt")
	}
}

func TestStartWelcomeFallback(t *testing.T) {
	repo := newFakeRepo()
	client := &fakeLLM{err: llm.ErrUnavailable}
	svc := NewService(repo, client, time.Second)

	_, welcome, err := svc.Start(context.Background(), sampleProfile(), nil)
	if err != nil {
		t.Fatalf("Start must not fail on LLM error: %v", err)
	}
	if welcome != "Hi Alice! I'm Remy. How can I help you today?" {
		t.Fatalf("fallback welcome = %q", welcome)
	}
}

func TestStartWelcomeFallbackWithMainReport(t *testing.T) {
	repo := newFakeRepo()
	client := &fakeLLM{err: llm.ErrUnavailable}
	svc := NewService(repo, client, time.Second)

	_, welcome, err := svc.Start(context.Background(), sampleProfile(), []SessionReport{mainReport()})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.Contains(welcome, "Based on your recent report") {
		t.Fatalf("report-aware fallback missing, got %q", welcome)
	}
}

func TestStartPropagatesStoreError(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("db down")
	svc := NewService(repo, &fakeLLM{reply: "hi"}, time.Second)

	if _, _, err := svc.Start(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error when session store fails")
	}
}

func TestMessageValidatesHistory(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeLLM{reply: "ok"}, time.Second)

	if _, err := svc.Message(context.Background(), uuid.NewString(), nil); !errors.Is(err, ErrEmptyHistory) {
		t.Fatalf("empty history: got %v", err)
	}

	history := []Turn{{Role: "assistant", Content: "How can I help?"}}
	if _, err := svc.Message(context.Background(), uuid.NewString(), history); !errors.Is(err, ErrLastNotUser) {
		t.Fatalf("assistant-last history: got %v", err)
	}
}

func TestMessageUnknownSession(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeLLM{reply: "ok"}, time.Second)
	history := []Turn{{Role: "user", Content: "hello"}}

	if _, err := svc.Message(context.Background(), uuid.NewString(), history); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("unknown session: got %v", err)
	}
	if _, err := svc.Message(context.Background(), "not-a-uuid", history); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("malformed session id: got %v", err)
	}
}

func TestMessageRebuildsSystemPrompt(t *testing.T) {
	repo := newFakeRepo()
	client := &fakeLLM{reply: "You mentioned a cough."}
	svc := NewService(repo, client, time.Second)

	id, _, err := svc.Start(context.Background(), sampleProfile(), []SessionReport{mainReport()})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	history := []Turn{
		{Role: "assistant", Content: "Hi Alice!"},
		{Role: "user", Content: "What did my report say?"},
	}
	reply, err := svc.Message(context.Background(), id, history)
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	if reply != "You mentioned a cough." {
		t.Fatalf("reply = %q", reply)
	}

	msgs := client.lastReq.Messages
	if len(msgs) != 3 {
		t.Fatalf("expected system + 2 history turns, got %d messages", len(msgs))
	}
	if msgs[0].Role != "system" || !strings.Contains(msgs[0].Content, "CURRENT ASSESSMENT REPORT") {
		t.Fatal("system prompt must carry the stored report context")
	}
	if msgs[2].Role != "user" || msgs[2].Content != "What did my report say?" {
		t.Fatalf("last message mismatch: %+v", msgs[2])
	}
}

func TestMessageFallbackOnLLMError(t *testing.T) {
	repo := newFakeRepo()
	client := &fakeLLM{reply: "hi"}
	svc := NewService(repo, client, time.Second)

	id, _, err := svc.Start(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	client.err = llm.ErrUnavailable
	reply, err := svc.Message(context.Background(), id, []Turn{{Role: "user", Content: "hello"}})
	if err != nil {
		t.Fatalf("Message must not surface LLM errors: %v", err)
	}
	if reply != FallbackMessage {
		t.Fatalf("reply = %q, want fallback", reply)
	}
}

func TestEndDeletesSession(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeLLM{reply: "hi"}, time.Second)

	id, _, err := svc.Start(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := svc.End(context.Background(), id); err != nil {
		t.Fatalf("End: %v", err)
	}
	if len(repo.sessions) != 0 {
		t.Fatal("session still stored after End")
	}
	if err := svc.End(context.Background(), id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second End: got %v", err)
	}
	if err := svc.End(context.Background(), "garbage"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("malformed id End: got %v", err)
	}
}
