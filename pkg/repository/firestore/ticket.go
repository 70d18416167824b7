package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// maxBatchWrites is the Firestore limit of writes in one transaction
const maxBatchWrites = 500

type ticketDocument struct {
	ID                 string     `firestore:"id"`
	CompanyID          string     `firestore:"company_id"`
	CompanyName        string     `firestore:"company_name"`
	Title              string     `firestore:"title"`
	Description        string     `firestore:"description"`
	AcceptanceCriteria []string   `firestore:"acceptance_criteria"`
	TechnicalNotes     string     `firestore:"technical_notes"`
	EstimatedHours     float64    `firestore:"estimated_hours"`
	Priority           string     `firestore:"priority"`
	Dependencies       []string   `firestore:"dependencies"`
	Status             string     `firestore:"status"`
	CreatedAt          time.Time  `firestore:"created_at"`
	CompletedAt        *time.Time `firestore:"completed_at"`
}

func newTicketDocument(t *model.Ticket) *ticketDocument {
	copied := model.CopyTicket(t)
	return &ticketDocument{
		ID:                 copied.ID.String(),
		CompanyID:          copied.CompanyID.String(),
		CompanyName:        copied.CompanyName,
		Title:              copied.Title,
		Description:        copied.Description,
		AcceptanceCriteria: copied.AcceptanceCriteria,
		TechnicalNotes:     copied.TechnicalNotes,
		EstimatedHours:     copied.EstimatedHours,
		Priority:           copied.Priority.String(),
		Dependencies:       copied.Dependencies,
		Status:             copied.Status.String(),
		CreatedAt:          copied.CreatedAt,
		CompletedAt:        copied.CompletedAt,
	}
}

func (d *ticketDocument) toModel() *model.Ticket {
	t := &model.Ticket{
		ID:                 types.TicketID(d.ID),
		CompanyID:          types.CompanyID(d.CompanyID),
		CompanyName:        d.CompanyName,
		Title:              d.Title,
		Description:        d.Description,
		AcceptanceCriteria: d.AcceptanceCriteria,
		TechnicalNotes:     d.TechnicalNotes,
		EstimatedHours:     d.EstimatedHours,
		Priority:           types.Priority(d.Priority),
		Dependencies:       d.Dependencies,
		Status:             types.TicketStatus(d.Status),
		CreatedAt:          d.CreatedAt,
		CompletedAt:        d.CompletedAt,
	}
	if t.AcceptanceCriteria == nil {
		t.AcceptanceCriteria = []string{}
	}
	if t.Dependencies == nil {
		t.Dependencies = []string{}
	}
	return t
}

type ticketRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newTicketRepository(client *firestore.Client) *ticketRepository {
	return &ticketRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *ticketRepository) ticketsCollection() string {
	return CollectionName(r.collectionPrefix, "tickets")
}

func (r *ticketRepository) PutBatch(ctx context.Context, tickets []*model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	if len(tickets) > maxBatchWrites {
		return goerr.New("too many tickets in one batch", goerr.V("count", len(tickets)))
	}
	for _, t := range tickets {
		if err := t.ID.Validate(); err != nil {
			return goerr.Wrap(err, "invalid ticket ID")
		}
	}

	collection := r.client.Collection(r.ticketsCollection())
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, t := range tickets {
			if err := tx.Create(collection.Doc(t.ID.String()), newTicketDocument(t)); err != nil {
				return goerr.Wrap(err, "failed to create ticket", goerr.V("ticket_id", t.ID))
			}
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to store tickets", goerr.V("count", len(tickets)))
	}

	return nil
}

func (r *ticketRepository) Get(ctx context.Context, id types.TicketID) (*model.Ticket, error) {
	doc, err := r.client.Collection(r.ticketsCollection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("ticket_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get ticket", goerr.V("ticket_id", id))
	}

	var ticketDoc ticketDocument
	if err := doc.DataTo(&ticketDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal ticket", goerr.V("ticket_id", id))
	}

	return ticketDoc.toModel(), nil
}

func (r *ticketRepository) Complete(ctx context.Context, id types.TicketID, at time.Time) (*model.Ticket, bool, error) {
	docRef := r.client.Collection(r.ticketsCollection()).Doc(id.String())

	var result *model.Ticket
	var transitioned bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// The function may be retried; reset outputs on every attempt
		result, transitioned = nil, false

		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("ticket_id", id))
			}
			return goerr.Wrap(err, "failed to get ticket", goerr.V("ticket_id", id))
		}

		var ticketDoc ticketDocument
		if err := doc.DataTo(&ticketDoc); err != nil {
			return goerr.Wrap(err, "failed to unmarshal ticket", goerr.V("ticket_id", id))
		}

		current := ticketDoc.toModel()
		if !current.Status.CanTransitionTo(types.TicketStatusCompleted) {
			result = current
			return nil
		}

		completedAt := at
		current.Status = types.TicketStatusCompleted
		current.CompletedAt = &completedAt
		result = current
		transitioned = true

		return tx.Update(docRef, []firestore.Update{
			{Path: "status", Value: types.TicketStatusCompleted.String()},
			{Path: "completed_at", Value: completedAt},
		})
	})
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to complete ticket", goerr.V("ticket_id", id))
	}

	return result, transitioned, nil
}

func (r *ticketRepository) ListByCompany(ctx context.Context, companyID types.CompanyID) ([]*model.Ticket, error) {
	query := r.client.Collection(r.ticketsCollection()).
		Where("company_id", "==", companyID.String()).
		OrderBy("id", firestore.Asc)
	return r.list(ctx, query)
}

func (r *ticketRepository) List(ctx context.Context) ([]*model.Ticket, error) {
	query := r.client.Collection(r.ticketsCollection()).OrderBy("id", firestore.Asc)
	return r.list(ctx, query)
}

func (r *ticketRepository) list(ctx context.Context, query firestore.Query) ([]*model.Ticket, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	tickets := make([]*model.Ticket, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate tickets")
		}

		var ticketDoc ticketDocument
		if err := doc.DataTo(&ticketDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal ticket")
		}
		tickets = append(tickets, ticketDoc.toModel())
	}

	return tickets, nil
}
