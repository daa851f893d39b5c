package coach

// Verdict is the outcome of classifying the trainee's latest response
type Verdict int

const (
	// VerdictMinor marks a conversational filler that does not address
	// the objection. No further analysis happens for the turn.
	VerdictMinor Verdict = iota
	// VerdictSubstantive marks a response that engages the objection and
	// triggers the full analysis pipeline.
	VerdictSubstantive
	// VerdictFailed marks a classification call that did not produce a
	// usable answer. It is reported as-is, never coerced into one of the
	// other two verdicts.
	VerdictFailed
)

// Classification is the result of the classify step. Detail carries the
// raw failure text when the verdict is VerdictFailed.
type Classification struct {
	Verdict Verdict
	Detail  string
}

func (c Classification) String() string {
	switch c.Verdict {
	case VerdictMinor:
		return "minor"
	case VerdictSubstantive:
		return "substantive"
	default:
		return c.Detail
	}
}
