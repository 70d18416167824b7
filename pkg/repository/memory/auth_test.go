package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/model/auth"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"github.com/secmon-lab/cottus/pkg/repository/memory"
)

func TestPutToken_PrunesExpired(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	old, err := auth.NewToken(types.NewCompanyID(), types.NewSessionID(), now.Add(-2*auth.DefaultTokenLifetime))
	gt.NoError(t, err).Required()
	live, err := auth.NewToken(types.NewCompanyID(), types.NewSessionID(), now.Add(-time.Hour))
	gt.NoError(t, err).Required()
	gt.NoError(t, repo.PutToken(ctx, old)).Required()
	gt.NoError(t, repo.PutToken(ctx, live)).Required()

	fresh, err := auth.NewToken(types.NewCompanyID(), types.NewSessionID(), now)
	gt.NoError(t, err).Required()
	gt.NoError(t, repo.PutToken(ctx, fresh)).Required()

	_, err = repo.GetToken(ctx, old.ID)
	gt.Error(t, err).Is(interfaces.ErrNotFound)

	got, err := repo.GetToken(ctx, live.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, got.Sub).Equal(live.Sub)
}

func TestGetToken_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	token, err := auth.NewToken(types.NewCompanyID(), types.NewSessionID(), time.Now())
	gt.NoError(t, err).Required()
	gt.NoError(t, repo.PutToken(ctx, token)).Required()

	got, err := repo.GetToken(ctx, token.ID)
	gt.NoError(t, err).Required()
	got.Secret = "tampered"

	again, err := repo.GetToken(ctx, token.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, again.Secret).Equal(token.Secret)
}
