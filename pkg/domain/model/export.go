package model

import "time"

// ExportDocument is the self-contained transaction record of one company
type ExportDocument struct {
	Company      *Company  `json:"company"`
	Conversation []Turn    `json:"conversation"`
	Tickets      []*Ticket `json:"tickets"`
	ExportedAt   time.Time `json:"exported_at"`
}
