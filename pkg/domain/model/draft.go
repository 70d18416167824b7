package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

// Draft is a ticket as declared by the completion service, before it is
// registered. Field semantics beyond structure are not checked; Priority in
// particular is carried through as declared.
type Draft struct {
	Title              string
	Description        string
	AcceptanceCriteria []string
	TechnicalNotes     string
	EstimatedHours     float64
	Priority           types.Priority
	Dependencies       []string
}

// Validate enforces the structural requirements of the ticket data model
func (d *Draft) Validate() error {
	if d.Title == "" {
		return goerr.New("draft title is required")
	}
	if len(d.AcceptanceCriteria) == 0 {
		return goerr.New("draft requires at least one acceptance criterion", goerr.V("title", d.Title))
	}
	if d.EstimatedHours < 0 {
		return goerr.New("estimated hours must not be negative",
			goerr.V("title", d.Title),
			goerr.V("estimated_hours", d.EstimatedHours))
	}
	return nil
}
