package reflection

import (
	"encoding/json"
	"errors"
	"strings"
)

// PlaceholderText fills any structured section the model left missing or
// empty. Callers distinguish AI-authored from backfilled sections only by
// comparing field values against this constant.
const PlaceholderText = "Not provided — consider completing this section yourself."

// ErrEmptyOutput is returned when a summary-mode response is blank after
// trimming.
var ErrEmptyOutput = errors.New("empty model output")

// StripFences removes Markdown code-fence markers from raw model output.
// Models routinely wrap JSON in ```json ... ``` despite being told not to;
// fenced and unfenced output must parse identically.
func StripFences(raw string) string {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Repair validates raw structured-mode output and repairs it into a complete
// 9-section Structured value. The raw text has fences stripped, then must
// parse as a JSON object — a parse failure discards the attempt. Every
// section that parses to a non-empty string is kept verbatim; everything
// else (missing key, empty string, non-string value) is replaced with
// PlaceholderText. An object missing every key still repairs successfully:
// a fully-placeholder reflection is deliberate graceful degradation.
func Repair(raw string) (*Structured, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(StripFences(raw)), &fields); err != nil {
		return nil, err
	}

	out := &Structured{}
	for _, key := range Keys() {
		dst := out.field(key)
		*dst = PlaceholderText
		rawVal, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(rawVal, &s); err != nil {
			continue // non-string value, keep placeholder
		}
		if strings.TrimSpace(s) == "" {
			continue
		}
		*dst = s
	}
	return out, nil
}

// ValidateSummary checks free-summary output: the only requirement is that
// the trimmed text is non-empty. The trimmed form is returned.
func ValidateSummary(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptyOutput
	}
	return s, nil
}
