package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/model/auth"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

func runAuthRepositoryTest(t *testing.T, newRepo repoFactory) {
	newToken := func(t *testing.T) *auth.Token {
		token, err := auth.NewToken(types.NewCompanyID(), types.NewSessionID(), time.Now().UTC().Truncate(time.Millisecond))
		gt.NoError(t, err).Required()
		return token
	}

	t.Run("PutToken and GetToken", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		token := newToken(t)

		gt.NoError(t, repo.PutToken(ctx, token)).Required()

		got, err := repo.GetToken(ctx, token.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(token.ID)
		gt.Value(t, got.Secret).Equal(token.Secret)
		gt.Value(t, got.Sub).Equal(token.Sub)
		gt.Value(t, got.SessionID).Equal(token.SessionID)
		gt.Bool(t, got.ExpiresAt.Equal(token.ExpiresAt)).True()
		gt.Bool(t, got.CreatedAt.Equal(token.CreatedAt)).True()
	})

	t.Run("GetToken not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetToken(context.Background(), newToken(t).ID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("DeleteToken", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		token := newToken(t)

		gt.NoError(t, repo.PutToken(ctx, token)).Required()
		gt.NoError(t, repo.DeleteToken(ctx, token.ID)).Required()

		_, err := repo.GetToken(ctx, token.ID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)

		gt.Error(t, repo.DeleteToken(ctx, token.ID)).Is(interfaces.ErrNotFound)
	})

	t.Run("invalid token ID is rejected", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetToken(context.Background(), auth.TokenID("not-a-uuid"))
		gt.Error(t, err)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		repo := newRepo(t)
		token := newToken(t)
		token.Secret = ""
		gt.Error(t, repo.PutToken(context.Background(), token))
	})
}
