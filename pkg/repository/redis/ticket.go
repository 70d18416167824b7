package redis

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

type ticketRepository struct {
	client *redis.Client
	keys   keySpace
}

func (r *ticketRepository) PutBatch(ctx context.Context, tickets []*model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	keys := make([]string, len(tickets))
	values := make([][]byte, len(tickets))
	for i, t := range tickets {
		if err := t.ID.Validate(); err != nil {
			return goerr.Wrap(err, "invalid ticket ID")
		}
		data, err := encodeJSON(t)
		if err != nil {
			return goerr.Wrap(err, "failed to encode ticket", goerr.V("ticket_id", t.ID))
		}
		keys[i] = r.keys.ticket(t.ID.String())
		values[i] = data
	}

	return watch(ctx, r.client, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, keys...).Result()
		if err != nil {
			return goerr.Wrap(err, "failed to check ticket keys")
		}
		if n > 0 {
			return goerr.New("ticket already exists", goerr.V("count", n))
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, t := range tickets {
				pipe.Set(ctx, keys[i], values[i], 0)
				pipe.RPush(ctx, r.keys.tickets(), t.ID.String())
				pipe.RPush(ctx, r.keys.companyTickets(t.CompanyID.String()), t.ID.String())
			}
			return nil
		})
		return err
	}, keys...)
}

func (r *ticketRepository) Get(ctx context.Context, id types.TicketID) (*model.Ticket, error) {
	var ticket model.Ticket
	if err := getJSON(ctx, r.client, r.keys.ticket(id.String()), &ticket); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("ticket_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get ticket", goerr.V("ticket_id", id))
	}
	return &ticket, nil
}

func (r *ticketRepository) Complete(ctx context.Context, id types.TicketID, at time.Time) (*model.Ticket, bool, error) {
	key := r.keys.ticket(id.String())

	var result *model.Ticket
	var transitioned bool
	err := watch(ctx, r.client, func(tx *redis.Tx) error {
		result, transitioned = nil, false

		var ticket model.Ticket
		if err := getJSON(ctx, tx, key, &ticket); err != nil {
			if errors.Is(err, ErrNotFound) {
				return goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("ticket_id", id))
			}
			return err
		}
		if !ticket.Status.CanTransitionTo(types.TicketStatusCompleted) {
			result = &ticket
			return nil
		}

		completedAt := at
		ticket.Status = types.TicketStatusCompleted
		ticket.CompletedAt = &completedAt
		data, err := encodeJSON(&ticket)
		if err != nil {
			return err
		}

		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		}); err != nil {
			return err
		}

		result = &ticket
		transitioned = true
		return nil
	}, key)
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to complete ticket", goerr.V("ticket_id", id))
	}

	return result, transitioned, nil
}

func (r *ticketRepository) ListByCompany(ctx context.Context, companyID types.CompanyID) ([]*model.Ticket, error) {
	return r.listFrom(ctx, r.keys.companyTickets(companyID.String()))
}

func (r *ticketRepository) List(ctx context.Context) ([]*model.Ticket, error) {
	return r.listFrom(ctx, r.keys.tickets())
}

func (r *ticketRepository) listFrom(ctx context.Context, indexKey string) ([]*model.Ticket, error) {
	ids, err := r.client.LRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list ticket IDs", goerr.V("index", indexKey))
	}

	tickets := make([]*model.Ticket, 0, len(ids))
	if len(ids) == 0 {
		return tickets, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.keys.ticket(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get tickets")
	}

	for i, v := range values {
		data, ok := v.(string)
		if !ok {
			return nil, goerr.New("ticket listed but missing", goerr.V("ticket_id", ids[i]))
		}
		var ticket model.Ticket
		if err := unmarshalString(data, &ticket); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal ticket", goerr.V("ticket_id", ids[i]))
		}
		tickets = append(tickets, &ticket)
	}

	return tickets, nil
}
