// Package openai adapts the OpenAI chat completions API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/clarityworks/reflectd/internal/providers"
)

// Adapter generates text through an OpenAI chat model.
type Adapter struct {
	id      string
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates an OpenAI adapter for the given model.
func New(id, model, apiKey string, opts ...Option) *Adapter {
	a := &Adapter{
		id:      id,
		model:   model,
		apiKey:  apiKey,
		baseURL: "https://api.openai.com",
		client:  http.DefaultClient,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = u }
}

// WithHTTPClient sets the HTTP client used for outbound calls.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

func (a *Adapter) ID() string { return a.id }

// Generate issues one chat completion call. OpenAI accepts the system
// instruction as a dedicated system-role message.
func (a *Adapter) Generate(ctx context.Context, system, user string) (string, error) {
	payload := map[string]any{
		"model": a.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": 0.4,
	}

	headers := map[string]string{"Authorization": "Bearer " + a.apiKey}
	body, err := providers.DoRequest(ctx, a.client, a.baseURL+"/v1/chat/completions", payload, headers)
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return result.Choices[0].Message.Content, nil
}
