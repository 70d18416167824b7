package model

import (
	"time"

	"github.com/secmon-lab/cottus/pkg/domain/types"
)

// Ticket is an engineering ticket registered for a company
type Ticket struct {
	ID                 types.TicketID     `json:"id"`
	CompanyID          types.CompanyID    `json:"company_id"`
	CompanyName        string             `json:"company_name"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	AcceptanceCriteria []string           `json:"acceptance_criteria"`
	TechnicalNotes     string             `json:"technical_notes,omitempty"`
	EstimatedHours     float64            `json:"estimated_hours"`
	Priority           types.Priority     `json:"priority"`
	Dependencies       []string           `json:"dependencies"`
	Status             types.TicketStatus `json:"status"`
	CreatedAt          time.Time          `json:"created_at"`
	CompletedAt        *time.Time         `json:"completed_at"`
}

// IsCompleted reports whether the ticket reached the terminal state
func (t *Ticket) IsCompleted() bool {
	return t.Status == types.TicketStatusCompleted
}

// NewTicket builds a pending ticket owned by the company from a draft
func NewTicket(companyID types.CompanyID, companyName string, draft Draft, now time.Time) *Ticket {
	criteria := make([]string, len(draft.AcceptanceCriteria))
	copy(criteria, draft.AcceptanceCriteria)
	deps := make([]string, len(draft.Dependencies))
	copy(deps, draft.Dependencies)

	return &Ticket{
		ID:                 types.NewTicketID(),
		CompanyID:          companyID,
		CompanyName:        companyName,
		Title:              draft.Title,
		Description:        draft.Description,
		AcceptanceCriteria: criteria,
		TechnicalNotes:     draft.TechnicalNotes,
		EstimatedHours:     draft.EstimatedHours,
		Priority:           draft.Priority,
		Dependencies:       deps,
		Status:             types.TicketStatusPending,
		CreatedAt:          now,
	}
}

// CopyTicket creates a deep copy of a ticket
func CopyTicket(t *Ticket) *Ticket {
	copied := *t
	copied.AcceptanceCriteria = make([]string, len(t.AcceptanceCriteria))
	copy(copied.AcceptanceCriteria, t.AcceptanceCriteria)
	copied.Dependencies = make([]string, len(t.Dependencies))
	copy(copied.Dependencies, t.Dependencies)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		copied.CompletedAt = &at
	}
	return &copied
}
