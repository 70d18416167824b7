package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

type TicketRepository interface {
	// PutBatch stores new tickets atomically. Either all tickets are stored
	// or none.
	PutBatch(ctx context.Context, tickets []*model.Ticket) error

	// Get retrieves a ticket by ID
	Get(ctx context.Context, id types.TicketID) (*model.Ticket, error)

	// Complete marks a pending ticket completed at the given time. The
	// returned bool is false when the ticket was already completed, in which
	// case the stored ticket is returned unchanged.
	Complete(ctx context.Context, id types.TicketID, at time.Time) (*model.Ticket, bool, error)

	// ListByCompany retrieves the company's tickets in creation order
	ListByCompany(ctx context.Context, companyID types.CompanyID) ([]*model.Ticket, error)

	// List retrieves all tickets in creation order
	List(ctx context.Context) ([]*model.Ticket, error)
}
