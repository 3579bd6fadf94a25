// Package openai talks to OpenAI-compatible chat completion endpoints,
// which covers both OpenAI and Groq.
package openai

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
	OpenAIBaseURL = "https://api.openai.com/v1"
	GroqBaseURL   = "https://api.groq.com/openai/v1"
)

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
		return nil, fmt.Errorf("%s API key missing", cfg.LLM.Provider)
	}
	if cfg.LLM.Model == "" {
		return nil, errors.New("llm.model is required")
	}

	baseURL := cfg.LLM.BaseURL
	if baseURL == "" {
		baseURL = OpenAIBaseURL
		if cfg.LLM.Provider == "GROQ" {
			baseURL = GroqBaseURL
		}
	}

	return &Oracle{
		client: api.NewClient(
			api.WithBaseURL(strings.TrimRight(baseURL, "/")),
			api.WithTimeout(time.Duration(cfg.LLM.TimeoutSeconds)*time.Second),
			api.WithHeader("Authorization", "Bearer "+cfg.LLM.APIKey),
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

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	N           int           `json:"n"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Ask sends one chat completion and returns the first choice's content.
func (o *Oracle) Ask(ctx context.Context, system, payload string) (string, error) {
	const op = "openai.Ask"

	req := api.NewRequest(http.MethodPost, "/chat/completions").
		WithContext(ctx).
		WithBody(chatRequest{
			Model: o.model,
			Messages: []chatMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: payload},
			},
			Temperature: o.temperature,
			MaxTokens:   o.maxTokens,
			N:           1,
		})

	resp, err := o.client.DoWithRetry(req, o.retry)
	if err != nil {
		return "", api.Classify(op, err)
	}

	var r chatResponse
	if err := resp.ParseJSON(&r); err != nil {
		return "", fail.New(fail.Malformed, op, err)
	}
	if len(r.Choices) == 0 {
		return "", fail.New(fail.Malformed, op, errors.New("no choices"))
	}

	out := strings.TrimSpace(r.Choices[0].Message.Content)
	if out == "" {
		return "", fail.New(fail.Malformed, op, errors.New("empty reply"))
	}
	return out, nil
}
