// Package gemini adapts Google's generateContent API. One Adapter is created
// per configured model, so a fallback chain of Gemini models appears to the
// orchestrator as a sequence of independent providers.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/clarityworks/reflectd/internal/providers"
)

// Adapter generates text through a single Gemini model.
type Adapter struct {
	id      string
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a Gemini adapter for the given model.
func New(id, model, apiKey string, opts ...Option) *Adapter {
	a := &Adapter{
		id:      id,
		model:   model,
		apiKey:  apiKey,
		baseURL: "https://generativelanguage.googleapis.com",
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

// Generate issues one generateContent call and returns the first candidate's
// text verbatim. Gemini's v1beta generateContent has no reliable separate
// system slot across model generations, so the system instruction is
// concatenated ahead of the user prompt in a single user part.
func (a *Adapter) Generate(ctx context.Context, system, user string) (string, error) {
	payload := map[string]any{
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": system + "\n\n" + user}},
			},
		},
		"generationConfig": map[string]any{
			"temperature": 0.4,
		},
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", a.baseURL, a.model, a.apiKey)
	body, err := providers.DoRequest(ctx, a.client, url, payload, nil)
	if err != nil {
		return "", err
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}
