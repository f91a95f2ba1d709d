package providers

import "fmt"

// StatusError captures a non-2xx HTTP status from a provider response.
// Adapters return it unwrapped so the orchestrator can classify the attempt
// as an HTTP failure (as opposed to a timeout or a parse failure) and record
// the backend's status code and body in the attempt detail.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}
