package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"github.com/secmon-lab/cottus/pkg/utils/async"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
	"github.com/secmon-lab/cottus/pkg/utils/metrics"
)

// TicketUseCase owns the ticket lifecycle
type TicketUseCase struct {
	repo      interfaces.Repository
	notifiers []interfaces.TicketNotifier
	now       func() time.Time
}

func NewTicketUseCase(repo interfaces.Repository, notifiers []interfaces.TicketNotifier, now func() time.Time) *TicketUseCase {
	return &TicketUseCase{
		repo:      repo,
		notifiers: notifiers,
		now:       now,
	}
}

// RegisterBatch turns drafts into pending tickets owned by the company, in
// draft order. All tickets are stored or none.
func (uc *TicketUseCase) RegisterBatch(ctx context.Context, companyID types.CompanyID, companyName string, drafts []model.Draft) ([]*model.Ticket, error) {
	if _, err := uc.repo.Company().Get(ctx, companyID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrCompanyNotFound, "ticket owner does not exist", goerr.V(CompanyIDKey, companyID))
		}
		return nil, goerr.Wrap(err, "failed to get company", goerr.V(CompanyIDKey, companyID))
	}

	tickets := make([]*model.Ticket, 0, len(drafts))
	if len(drafts) == 0 {
		return tickets, nil
	}

	now := uc.now()
	for _, draft := range drafts {
		tickets = append(tickets, model.NewTicket(companyID, companyName, draft, now))
	}

	if err := uc.repo.Ticket().PutBatch(ctx, tickets); err != nil {
		return nil, goerr.Wrap(err, "failed to register tickets",
			goerr.V(CompanyIDKey, companyID), goerr.V("count", len(tickets)))
	}

	metrics.TicketsRegistered.Add(float64(len(tickets)))
	logging.From(ctx).Info("tickets registered", "company_id", companyID, "count", len(tickets))

	uc.notifyRegistered(ctx, tickets)
	return tickets, nil
}

// Complete moves a pending ticket to completed. Completing a completed
// ticket changes nothing and returns it as stored.
func (uc *TicketUseCase) Complete(ctx context.Context, id types.TicketID) (*model.Ticket, error) {
	ticket, transitioned, err := uc.repo.Ticket().Complete(ctx, id, uc.now())
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrTicketNotFound, "ticket not found", goerr.V(TicketIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to complete ticket", goerr.V(TicketIDKey, id))
	}

	if transitioned {
		metrics.TicketsCompleted.Inc()
		logging.From(ctx).Info("ticket completed", "ticket_id", id, "company_id", ticket.CompanyID)
		uc.notifyCompleted(ctx, ticket)
	}

	return ticket, nil
}

// GetTicket retrieves a ticket by ID
func (uc *TicketUseCase) GetTicket(ctx context.Context, id types.TicketID) (*model.Ticket, error) {
	ticket, err := uc.repo.Ticket().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrTicketNotFound, "ticket not found", goerr.V(TicketIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get ticket", goerr.V(TicketIDKey, id))
	}
	return ticket, nil
}

// ListForCompany returns the company's tickets in creation order
func (uc *TicketUseCase) ListForCompany(ctx context.Context, companyID types.CompanyID) ([]*model.Ticket, error) {
	tickets, err := uc.repo.Ticket().ListByCompany(ctx, companyID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tickets", goerr.V(CompanyIDKey, companyID))
	}
	return tickets, nil
}

// ListAll returns every ticket in creation order. Engineers only.
func (uc *TicketUseCase) ListAll(ctx context.Context) ([]*model.Ticket, error) {
	tickets, err := uc.repo.Ticket().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tickets")
	}
	return tickets, nil
}

func (uc *TicketUseCase) notifyRegistered(ctx context.Context, tickets []*model.Ticket) {
	for _, notifier := range uc.notifiers {
		snapshot := make([]*model.Ticket, len(tickets))
		for i, t := range tickets {
			snapshot[i] = model.CopyTicket(t)
		}
		async.Dispatch(ctx, func(ctx context.Context) error {
			return notifier.NotifyRegistered(ctx, snapshot)
		})
	}
}

func (uc *TicketUseCase) notifyCompleted(ctx context.Context, ticket *model.Ticket) {
	for _, notifier := range uc.notifiers {
		snapshot := model.CopyTicket(ticket)
		async.Dispatch(ctx, func(ctx context.Context) error {
			return notifier.NotifyCompleted(ctx, snapshot)
		})
	}
}
