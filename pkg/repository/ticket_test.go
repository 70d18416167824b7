package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

func newTestTickets(company *model.Company, titles ...string) []*model.Ticket {
	now := time.Now().UTC().Truncate(time.Millisecond)
	tickets := make([]*model.Ticket, 0, len(titles))
	for _, title := range titles {
		tickets = append(tickets, model.NewTicket(company.ID, company.Name, model.Draft{
			Title:              title,
			Description:        title + " description",
			AcceptanceCriteria: []string{"works"},
			EstimatedHours:     2,
			Priority:           types.PriorityMedium,
			Dependencies:       []string{"1"},
		}, now))
	}
	return tickets
}

func runTicketRepositoryTest(t *testing.T, newRepo repoFactory) {
	t.Run("PutBatch and Get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		company := newTestCompany(t, "Acme")

		tickets := newTestTickets(company, "Add login")
		gt.NoError(t, repo.Ticket().PutBatch(ctx, tickets)).Required()

		got, err := repo.Ticket().Get(ctx, tickets[0].ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("Add login")
		gt.Value(t, got.CompanyID).Equal(company.ID)
		gt.Value(t, got.CompanyName).Equal("Acme")
		gt.Value(t, got.AcceptanceCriteria).Equal([]string{"works"})
		gt.Value(t, got.Dependencies).Equal([]string{"1"})
		gt.Value(t, got.EstimatedHours).Equal(2.0)
		gt.Value(t, got.Priority).Equal(types.PriorityMedium)
		gt.Value(t, got.Status).Equal(types.TicketStatusPending)
		gt.Value(t, got.CompletedAt).Nil()
	})

	t.Run("Get unknown ticket", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Ticket().Get(context.Background(), types.NewTicketID())
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		gt.NoError(t, repo.Ticket().PutBatch(ctx, nil)).Required()

		all, err := repo.Ticket().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(0)
	})

	t.Run("batch with an existing ID stores nothing", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		company := newTestCompany(t, "Acme")

		first := newTestTickets(company, "A")
		gt.NoError(t, repo.Ticket().PutBatch(ctx, first)).Required()

		second := newTestTickets(company, "B", "C")
		second[1].ID = first[0].ID
		gt.Error(t, repo.Ticket().PutBatch(ctx, second))

		_, err := repo.Ticket().Get(ctx, second[0].ID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("listing is filtered by company and ordered by creation", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		acme := newTestCompany(t, "Acme")
		other := newTestCompany(t, "Other")

		gt.NoError(t, repo.Ticket().PutBatch(ctx, newTestTickets(acme, "A1", "A2"))).Required()
		gt.NoError(t, repo.Ticket().PutBatch(ctx, newTestTickets(other, "O1"))).Required()
		gt.NoError(t, repo.Ticket().PutBatch(ctx, newTestTickets(acme, "A3"))).Required()

		acmeTickets, err := repo.Ticket().ListByCompany(ctx, acme.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, acmeTickets).Length(3).Required()
		gt.Value(t, acmeTickets[0].Title).Equal("A1")
		gt.Value(t, acmeTickets[1].Title).Equal("A2")
		gt.Value(t, acmeTickets[2].Title).Equal("A3")

		otherTickets, err := repo.Ticket().ListByCompany(ctx, other.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, otherTickets).Length(1).Required()
		gt.Value(t, otherTickets[0].Title).Equal("O1")

		all, err := repo.Ticket().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(4).Required()
		gt.Value(t, all[0].Title).Equal("A1")
		gt.Value(t, all[2].Title).Equal("O1")
		gt.Value(t, all[3].Title).Equal("A3")

		none, err := repo.Ticket().ListByCompany(ctx, types.NewCompanyID())
		gt.NoError(t, err).Required()
		gt.Array(t, none).Length(0)
	})

	t.Run("Complete transitions once", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		tickets := newTestTickets(newTestCompany(t, "Acme"), "A")
		gt.NoError(t, repo.Ticket().PutBatch(ctx, tickets)).Required()

		first := time.Now().UTC().Truncate(time.Millisecond)
		completed, changed, err := repo.Ticket().Complete(ctx, tickets[0].ID, first)
		gt.NoError(t, err).Required()
		gt.Bool(t, changed).True()
		gt.Value(t, completed.Status).Equal(types.TicketStatusCompleted)
		gt.Value(t, completed.CompletedAt).NotNil()
		gt.Bool(t, completed.CompletedAt.Equal(first)).True()

		again, changed, err := repo.Ticket().Complete(ctx, tickets[0].ID, first.Add(time.Hour))
		gt.NoError(t, err).Required()
		gt.Bool(t, changed).False()
		gt.Bool(t, again.CompletedAt.Equal(first)).True()

		stored, err := repo.Ticket().Get(ctx, tickets[0].ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Status).Equal(types.TicketStatusCompleted)
		gt.Bool(t, stored.CompletedAt.Equal(first)).True()
	})

	t.Run("Complete unknown ticket", func(t *testing.T) {
		repo := newRepo(t)
		_, _, err := repo.Ticket().Complete(context.Background(), types.NewTicketID(), time.Now())
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("concurrent Complete transitions exactly once", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		tickets := newTestTickets(newTestCompany(t, "Acme"), "A")
		gt.NoError(t, repo.Ticket().PutBatch(ctx, tickets)).Required()

		const workers = 8
		var wg sync.WaitGroup
		var mu sync.Mutex
		transitions := 0
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, changed, err := repo.Ticket().Complete(ctx, tickets[0].ID, time.Now())
				if err != nil {
					t.Errorf("complete failed: %v", err)
					return
				}
				if changed {
					mu.Lock()
					transitions++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		gt.Number(t, transitions).Equal(1)
	})

	t.Run("returned tickets are copies", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		tickets := newTestTickets(newTestCompany(t, "Acme"), "A")
		gt.NoError(t, repo.Ticket().PutBatch(ctx, tickets)).Required()

		tickets[0].Title = "changed by caller"
		got, err := repo.Ticket().Get(ctx, tickets[0].ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("A")

		got.AcceptanceCriteria[0] = "mutated"
		again, err := repo.Ticket().Get(ctx, tickets[0].ID)
		gt.NoError(t, err).Required()
		gt.Value(t, again.AcceptanceCriteria[0]).Equal("works")
	})
}
