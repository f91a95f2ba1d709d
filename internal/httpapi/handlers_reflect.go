package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/clarityworks/reflectd/internal/providers"
	"github.com/clarityworks/reflectd/internal/reflection"
)

// ReflectRequest is the JSON body for the /v1/reflect endpoint. Some deployed
// clients send the journal text under "reflection" instead of "text", and
// some double-encode the whole body as a JSON string; both are accepted.
type ReflectRequest struct {
	Text       string `json:"text"`
	Reflection string `json:"reflection"`
	Mode       string `json:"mode"`
}

// ReflectResponse carries exactly one of Reflection or Summary, per mode.
// Provider and Degraded are advisory: a degraded response is the static
// template served because no backend produced a valid result.
type ReflectResponse struct {
	Reflection *reflection.Structured `json:"reflection,omitempty"`
	Summary    string                 `json:"summary,omitempty"`
	Provider   string                 `json:"provider"`
	Degraded   bool                   `json:"degraded,omitempty"`
}

// decodeReflectBody accepts either a JSON object or a JSON-encoded string
// containing the object.
func decodeReflectBody(body []byte, req *ReflectRequest) error {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '"' {
		var inner string
		if err := json.Unmarshal(body, &inner); err != nil {
			return err
		}
		body = []byte(inner)
	}
	return json.Unmarshal(body, req)
}

func ReflectHandler(d Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			jsonError(w, "failed to read body", http.StatusBadRequest)
			return
		}

		var req ReflectRequest
		if err := decodeReflectBody(body, &req); err != nil {
			jsonError(w, "bad json", http.StatusBadRequest)
			return
		}

		text := strings.TrimSpace(req.Text)
		if text == "" {
			text = strings.TrimSpace(req.Reflection)
		}
		if text == "" {
			jsonError(w, "text is required", http.StatusBadRequest)
			return
		}

		mode := reflection.ParseMode(req.Mode)
		system, user := reflection.BuildPrompts(mode, text)

		// Forward the request ID to outbound provider calls.
		reqID := middleware.GetReqID(r.Context())
		ctx := providers.WithRequestID(r.Context(), reqID)

		res := d.Engine.Resolve(ctx, system, user, mode)

		recordObservability(d, observeParams{
			Ctx:       r.Context(),
			Mode:      string(mode),
			Provider:  res.ProviderUsed,
			Degraded:  res.Degraded,
			LatencyMs: time.Since(start).Milliseconds(),
			Status:    http.StatusOK,
			RequestID: reqID,
			Attempts:  res.Attempts,
		})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ReflectResponse{
			Reflection: res.Reflection,
			Summary:    res.Summary,
			Provider:   res.ProviderUsed,
			Degraded:   res.Degraded,
		})
	}
}
