// Package anthropic adapts the Anthropic messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/clarityworks/reflectd/internal/providers"
)

// Adapter generates text through an Anthropic model.
type Adapter struct {
	id      string
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates an Anthropic adapter for the given model.
func New(id, model, apiKey string, opts ...Option) *Adapter {
	a := &Adapter{
		id:      id,
		model:   model,
		apiKey:  apiKey,
		baseURL: "https://api.anthropic.com",
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

// Generate issues one messages call. Anthropic takes the system instruction
// as a top-level system field; max_tokens is mandatory on this API.
func (a *Adapter) Generate(ctx context.Context, system, user string) (string, error) {
	payload := map[string]any{
		"model":      a.model,
		"system":     system,
		"max_tokens": 2048,
		"messages": []map[string]string{
			{"role": "user", "content": user},
		},
	}

	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": "2023-06-01",
	}
	body, err := providers.DoRequest(ctx, a.client, a.baseURL+"/v1/messages", payload, headers)
	if err != nil {
		return "", err
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return result.Content[0].Text, nil
}
