package triage

import (
	"context"
	"strings"
	"testing"
	"time"

	"triage-assistant/internal/guidance"
	"triage-assistant/internal/llm"
	"triage-assistant/internal/platform/logger"
)

func init() { logger.Init() }

type fakeLLM struct {
	content string
	err     error
	lastReq llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	f.lastReq = req
	return f.content, f.err
}

func serviceWith(t *testing.T, client llm.Client) *Service {
	t.Helper()
	rules, err := guidance.Load("")
	if err != nil {
		t.Fatalf("failed to load rules: %v", err)
	}
	return NewService(rules, client, time.Second)
}

func TestMessageValidResponsePassesThrough(t *testing.T) {
	fake := &fakeLLM{content: `{"type":"analysis","summary":"s","urgency":"self_care","advice":["rest"]}`}
	svc := serviceWith(t, fake)

	resp := svc.Message(context.Background(), map[string]string{"q_current_ailment": "headache"}, "it hurts")
	if resp.Type != KindAnalysis || resp.Urgency != "self_care" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !fake.lastReq.JSONObject {
		t.Error("guidance turns must force JSON object output")
	}
	if len(fake.lastReq.Messages) != 1 {
		t.Fatalf("expected one composed message, got %d", len(fake.lastReq.Messages))
	}
	if !strings.Contains(fake.lastReq.Messages[0].Content, "MATCHED SYMPTOMS: headache") {
		t.Error("prompt should carry the matched symptom")
	}
}

func TestMessageUnavailableLLMFallsBack(t *testing.T) {
	svc := serviceWith(t, &fakeLLM{err: llm.ErrUnavailable})
	resp := svc.Message(context.Background(), nil, "hello")
	if resp.Type != KindQuestion || resp.Text == "" {
		t.Fatalf("expected fallback question, got %+v", resp)
	}
}

func TestMessageNonJSONContentFallsBack(t *testing.T) {
	svc := serviceWith(t, &fakeLLM{content: "I think you should rest."})
	resp := svc.Message(context.Background(), nil, "hello")
	if resp.Type != KindQuestion {
		t.Fatalf("expected safe question for non-JSON content, got %+v", resp)
	}
}

func TestMessageUnknownKindFallsBack(t *testing.T) {
	svc := serviceWith(t, &fakeLLM{content: `{"type":"diagnosis","text":"you have X"}`})
	resp := svc.Message(context.Background(), nil, "hello")
	if resp.Type != KindQuestion {
		t.Fatalf("responses outside the contract must fall back, got %+v", resp)
	}
}
