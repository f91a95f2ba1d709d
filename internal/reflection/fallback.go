package reflection

// FallbackProvider is the provider identity reported when no configured
// backend produced a valid result and the static template was served.
const FallbackProvider = "fallback-template"

// FallbackStructured returns the static 9-section reflection served when
// every provider attempt has failed or none is configured. A fresh copy is
// returned each call so callers can never mutate the template.
func FallbackStructured() *Structured {
	s := fallbackStructured
	return &s
}

// FallbackSummary is the static summary served on total provider exhaustion.
const FallbackSummary = "The AI summary service is temporarily unavailable. " +
	"Your reflection has been saved locally — re-read what you wrote and note " +
	"the one theme that stands out most, then try the summary again later."

var fallbackStructured = Structured{
	Hypothesis:       "What might be going on beneath the surface? Name your best working guess about the underlying need or dynamic.",
	Theme:            "Identify the single strongest theme running through this situation.",
	Approaches:       "List two or three approaches you could take next, including at least one you have not tried yet.",
	TheoreticalBase:  "Note any model, theory, or framework that is informing how you read this situation.",
	Reasoning:        "Explain why your chosen approach fits this person, at this time, in this context.",
	Safeguarding:     "Check explicitly for risk: is anyone unsafe, and does anything here need escalating?",
	WorkerReflection: "How did this situation land on you personally? Name the feeling before analysing it.",
	SelfCare:         "Choose one concrete thing you will do to look after yourself after this piece of work.",
	ClaritySnapshot:  "In one sentence: what do you know now that you did not know before writing this reflection?",
}
