// Package reflection defines the domain model for the guided reflective
// practice tool: the two request modes, the fixed 9-section structured
// reflection shape, prompt construction, and output validation/repair.
package reflection

// Mode selects the shape of the generated output.
type Mode string

const (
	// ModeStructured produces the fixed 9-section JSON reflection.
	ModeStructured Mode = "reflection9"
	// ModeSummary produces a single prose summary string.
	ModeSummary Mode = "summary"
)

// ParseMode maps a client-supplied mode string to a Mode. Anything that is
// not exactly "reflection9" resolves to ModeSummary, including the empty
// string — summary is the safe default and never the other way around.
func ParseMode(s string) Mode {
	if s == string(ModeStructured) {
		return ModeStructured
	}
	return ModeSummary
}

// Structured is the 9-section reflection. All fields are always non-empty in
// any value returned by this package: Repair backfills missing sections with
// PlaceholderText.
type Structured struct {
	Hypothesis       string `json:"hypothesis"`
	Theme            string `json:"theme"`
	Approaches       string `json:"approaches"`
	TheoreticalBase  string `json:"theoreticalBase"`
	Reasoning        string `json:"reasoning"`
	Safeguarding     string `json:"safeguarding"`
	WorkerReflection string `json:"workerReflection"`
	SelfCare         string `json:"selfCare"`
	ClaritySnapshot  string `json:"claritySnapshot"`
}

// Keys lists the 9 section keys in display order. The order matches the
// workbook sections the UI renders.
func Keys() []string {
	return []string{
		"hypothesis",
		"theme",
		"approaches",
		"theoreticalBase",
		"reasoning",
		"safeguarding",
		"workerReflection",
		"selfCare",
		"claritySnapshot",
	}
}

// field returns a pointer to the struct field backing the given key.
func (s *Structured) field(key string) *string {
	switch key {
	case "hypothesis":
		return &s.Hypothesis
	case "theme":
		return &s.Theme
	case "approaches":
		return &s.Approaches
	case "theoreticalBase":
		return &s.TheoreticalBase
	case "reasoning":
		return &s.Reasoning
	case "safeguarding":
		return &s.Safeguarding
	case "workerReflection":
		return &s.WorkerReflection
	case "selfCare":
		return &s.SelfCare
	case "claritySnapshot":
		return &s.ClaritySnapshot
	}
	return nil
}
