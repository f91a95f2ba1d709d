// Package ollama adapts any OpenAI-compatible self-hosted endpoint (Ollama,
// vLLM, llama.cpp server). No credential is required; the endpoint itself is
// the configuration.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/clarityworks/reflectd/internal/providers"
)

// Adapter generates text through a self-hosted OpenAI-compatible endpoint.
type Adapter struct {
	id       string
	model    string
	endpoint string
	client   *http.Client
}

// New creates an adapter for the given endpoint and model.
func New(id, model, endpoint string, opts ...Option) *Adapter {
	a := &Adapter{
		id:       id,
		model:    model,
		endpoint: endpoint,
		client:   http.DefaultClient,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient sets the HTTP client used for outbound calls.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

func (a *Adapter) ID() string { return a.id }

// Generate issues one chat completion call against the local endpoint.
func (a *Adapter) Generate(ctx context.Context, system, user string) (string, error) {
	payload := map[string]any{
		"model": a.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": 0.4,
	}

	body, err := providers.DoRequest(ctx, a.client, a.endpoint+"/v1/chat/completions", payload, nil)
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
