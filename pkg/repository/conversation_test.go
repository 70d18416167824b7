package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

func newTestSession(companyID types.CompanyID) *model.Session {
	return &model.Session{
		ID:        types.NewSessionID(),
		CompanyID: companyID,
		StartedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func runConversationRepositoryTest(t *testing.T, newRepo repoFactory) {
	t.Run("CreateSession makes it active", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		companyID := types.NewCompanyID()

		first := newTestSession(companyID)
		gt.NoError(t, repo.Conversation().CreateSession(ctx, first)).Required()

		active, err := repo.Conversation().GetActiveSession(ctx, companyID)
		gt.NoError(t, err).Required()
		gt.Value(t, active.ID).Equal(first.ID)

		second := newTestSession(companyID)
		gt.NoError(t, repo.Conversation().CreateSession(ctx, second)).Required()

		active, err = repo.Conversation().GetActiveSession(ctx, companyID)
		gt.NoError(t, err).Required()
		gt.Value(t, active.ID).Equal(second.ID)
		gt.Value(t, active.CompanyID).Equal(companyID)

		old, err := repo.Conversation().GetSession(ctx, first.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, old.CompanyID).Equal(companyID)
	})

	t.Run("no active session", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Conversation().GetActiveSession(context.Background(), types.NewCompanyID())
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("turns keep append order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		session := newTestSession(types.NewCompanyID())
		gt.NoError(t, repo.Conversation().CreateSession(ctx, session)).Required()

		turns, err := repo.Conversation().ListTurns(ctx, session.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, turns).Length(0)

		gt.NoError(t, repo.Conversation().AppendTurns(ctx, session.ID, model.AssistantTurn("Hello"))).Required()
		gt.NoError(t, repo.Conversation().AppendTurns(ctx, session.ID,
			model.UserTurn("I need a login page"),
			model.AssistantTurn("Sure"),
		)).Required()
		// Identical turns are kept as separate entries
		gt.NoError(t, repo.Conversation().AppendTurns(ctx, session.ID, model.AssistantTurn("Sure"))).Required()

		turns, err = repo.Conversation().ListTurns(ctx, session.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, turns).Equal([]model.Turn{
			model.AssistantTurn("Hello"),
			model.UserTurn("I need a login page"),
			model.AssistantTurn("Sure"),
			model.AssistantTurn("Sure"),
		})
	})

	t.Run("sessions do not share turns", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a := newTestSession(types.NewCompanyID())
		b := newTestSession(types.NewCompanyID())
		gt.NoError(t, repo.Conversation().CreateSession(ctx, a)).Required()
		gt.NoError(t, repo.Conversation().CreateSession(ctx, b)).Required()

		gt.NoError(t, repo.Conversation().AppendTurns(ctx, a.ID, model.UserTurn("only in a"))).Required()

		turns, err := repo.Conversation().ListTurns(ctx, b.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, turns).Length(0)
	})

	t.Run("unknown session", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		id := types.NewSessionID()

		_, err := repo.Conversation().GetSession(ctx, id)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
		_, err = repo.Conversation().ListTurns(ctx, id)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
		gt.Error(t, repo.Conversation().AppendTurns(ctx, id, model.UserTurn("hi"))).Is(interfaces.ErrNotFound)
	})

	t.Run("invalid role is rejected", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		session := newTestSession(types.NewCompanyID())
		gt.NoError(t, repo.Conversation().CreateSession(ctx, session)).Required()

		err := repo.Conversation().AppendTurns(ctx, session.ID, model.Turn{Role: "system", Content: "x"})
		gt.Error(t, err)
	})
}
