package types

// Priority is the priority declared for a ticket. Values come from the LLM as
// free text and are kept as declared; IsKnown tells whether it is one of the
// levels the system prompt asks for.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsKnown reports whether the priority is one of low, medium or high
func (p Priority) IsKnown() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func (p Priority) String() string {
	return string(p)
}
