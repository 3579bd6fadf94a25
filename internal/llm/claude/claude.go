package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"trading-agent/internal/api"
	"trading-agent/internal/fail"
	"trading-agent/internal/interfaces"
	"trading-agent/internal/store"
)

const (
	defaultBaseURL   = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"
)

// Oracle calls the Anthropic Messages API.
type Oracle struct {
	client      *api.Client
	model       string
	maxTokens   int
	temperature float32
	retry       *api.RetryConfig
}

var _ interfaces.Oracle = (*Oracle)(nil)

func New(cfg *store.Config) (*Oracle, error) {
	if cfg.LLM.APIKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY missing")
	}
	if cfg.LLM.Model == "" {
		return nil, errors.New("llm.model is required")
	}
	baseURL := cfg.LLM.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Oracle{
		client: api.NewClient(
			api.WithBaseURL(strings.TrimRight(baseURL, "/")),
			api.WithTimeout(time.Duration(cfg.LLM.TimeoutSeconds)*time.Second),
			api.WithHeader("x-api-key", cfg.LLM.APIKey),
			api.WithHeader("anthropic-version", anthropicVersion),
			api.WithLogging(true),
		),
		model:       cfg.LLM.Model,
		maxTokens:   cfg.LLM.MaxTokens,
		temperature: cfg.LLM.Temperature,
		retry: &api.RetryConfig{
			MaxAttempts: max(cfg.LLM.MaxAttempts, 1),
			InitialWait: time.Second,
			MaxWait:     5 * time.Second,
		},
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Ask returns the concatenated text blocks of the reply.
func (o *Oracle) Ask(ctx context.Context, system, payload string) (string, error) {
	const op = "claude.Ask"

	req := api.NewRequest(http.MethodPost, "/messages").
		WithContext(ctx).
		WithBody(messagesRequest{
			Model:       o.model,
			System:      system,
			Messages:    []message{{Role: "user", Content: payload}},
			MaxTokens:   o.maxTokens,
			Temperature: o.temperature,
		})

	resp, err := o.client.DoWithRetry(req, o.retry)
	if err != nil {
		return "", api.Classify(op, err)
	}

	var r messagesResponse
	if err := resp.ParseJSON(&r); err != nil {
		return "", fail.New(fail.Malformed, op, err)
	}

	var b strings.Builder
	for _, c := range r.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fail.New(fail.Malformed, op, fmt.Errorf("no text content in %d blocks", len(r.Content)))
	}
	return out, nil
}
