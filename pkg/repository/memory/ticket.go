package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

type ticketRepository struct {
	mu      sync.RWMutex
	tickets map[types.TicketID]*model.Ticket
	// order holds ticket IDs in insertion order
	order []types.TicketID
}

func newTicketRepository() *ticketRepository {
	return &ticketRepository{
		tickets: make(map[types.TicketID]*model.Ticket),
	}
}

func (r *ticketRepository) PutBatch(ctx context.Context, tickets []*model.Ticket) error {
	for _, t := range tickets {
		if err := t.ID.Validate(); err != nil {
			return goerr.Wrap(err, "invalid ticket ID")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[types.TicketID]struct{}, len(tickets))
	for _, t := range tickets {
		if _, exists := r.tickets[t.ID]; exists {
			return goerr.New("ticket already exists", goerr.V("ticket_id", t.ID))
		}
		if _, dup := seen[t.ID]; dup {
			return goerr.New("duplicate ticket in batch", goerr.V("ticket_id", t.ID))
		}
		seen[t.ID] = struct{}{}
	}

	for _, t := range tickets {
		r.tickets[t.ID] = model.CopyTicket(t)
		r.order = append(r.order, t.ID)
	}
	return nil
}

func (r *ticketRepository) Get(ctx context.Context, id types.TicketID) (*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, exists := r.tickets[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("ticket_id", id))
	}
	return model.CopyTicket(ticket), nil
}

func (r *ticketRepository) Complete(ctx context.Context, id types.TicketID, at time.Time) (*model.Ticket, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, exists := r.tickets[id]
	if !exists {
		return nil, false, goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("ticket_id", id))
	}
	if !ticket.Status.CanTransitionTo(types.TicketStatusCompleted) {
		return model.CopyTicket(ticket), false, nil
	}

	completedAt := at
	ticket.Status = types.TicketStatusCompleted
	ticket.CompletedAt = &completedAt
	return model.CopyTicket(ticket), true, nil
}

func (r *ticketRepository) ListByCompany(ctx context.Context, companyID types.CompanyID) ([]*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tickets := make([]*model.Ticket, 0)
	for _, id := range r.order {
		t := r.tickets[id]
		if t.CompanyID == companyID {
			tickets = append(tickets, model.CopyTicket(t))
		}
	}
	return tickets, nil
}

func (r *ticketRepository) List(ctx context.Context) ([]*model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tickets := make([]*model.Ticket, 0, len(r.order))
	for _, id := range r.order {
		tickets = append(tickets, model.CopyTicket(r.tickets[id]))
	}
	return tickets, nil
}
