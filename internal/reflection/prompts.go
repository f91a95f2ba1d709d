package reflection

import "fmt"

// System instructions are fixed per mode. The structured instruction names
// every section key so models that honour system prompts emit a parseable
// object on the first try.
const (
	structuredSystem = "You are a therapist. Reply ONLY with valid JSON keys: " +
		"hypothesis, theme, approaches, theoreticalBase, reasoning, " +
		"safeguarding, workerReflection, selfCare, claritySnapshot."
	summarySystem = "You are a helpful summarizer."
)

// BuildPrompts returns the system instruction and user prompt for the given
// mode, embedding the practitioner's raw text into the fixed templates.
func BuildPrompts(mode Mode, text string) (system, user string) {
	if mode == ModeStructured {
		return structuredSystem, fmt.Sprintf("Analyze this text: %s", text)
	}
	return summarySystem, fmt.Sprintf("Summarize this text: %s", text)
}
