package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ErrUnavailable is the single failure signal surfaced to callers. Transport
// errors, non-2xx responses and empty completions all collapse into it so
// every call site has exactly one branch to cover with a fallback value.
var ErrUnavailable = errors.New("llm unavailable")

// Message is a minimal chat message. Role must be one of: "system", "user",
// or "assistant".
type Message struct {
	Role    string
	Content string
}

// Request describes a single chat-completion call.
type Request struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
	// JSONObject forces the model to emit a JSON object.
	JSONObject bool
}

// Client is the interface consumed by the triage, report and chat services.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CerebrasClient calls the Cerebras chat-completions API, which speaks the
// OpenAI wire format.
type CerebrasClient struct {
	client *openai.Client
	model  string
}

// NewCerebrasClient constructs a client against the given base URL and model.
func NewCerebrasClient(apiKey, baseURL, model string) *CerebrasClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &CerebrasClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Model reports the configured model id.
func (c *CerebrasClient) Model() string { return c.model }

// Complete sends the request and returns the first choice's content. Any
// failure mode is wrapped in ErrUnavailable.
func (c *CerebrasClient) Complete(ctx context.Context, req Request) (string, error) {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			// coerce anything unknown to user
			role = openai.ChatMessageRoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	ccReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    oaMsgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONObject {
		ccReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, ccReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}
