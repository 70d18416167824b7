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

func newTestCompany(t *testing.T, name string) *model.Company {
	t.Helper()
	key, err := types.NewAPIKey()
	gt.NoError(t, err).Required()
	return &model.Company{
		ID:          types.NewCompanyID(),
		Name:        name,
		ContactName: "Jane Roe",
		Email:       "jane@example.com",
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		APIKey:      key,
	}
}

func runCompanyRepositoryTest(t *testing.T, newRepo repoFactory) {
	t.Run("Create and Get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		company := newTestCompany(t, "Acme")
		gt.NoError(t, repo.Company().Create(ctx, company)).Required()

		got, err := repo.Company().Get(ctx, company.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(company.ID)
		gt.Value(t, got.Name).Equal("Acme")
		gt.Value(t, got.ContactName).Equal(company.ContactName)
		gt.Value(t, got.Email).Equal(company.Email)
		gt.Value(t, got.APIKey).Equal(company.APIKey)
		gt.Bool(t, got.CreatedAt.Equal(company.CreatedAt)).True()
	})

	t.Run("Get unknown company", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Company().Get(context.Background(), types.NewCompanyID())
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("GetByAPIKey matches exactly", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		company := newTestCompany(t, "Acme")
		gt.NoError(t, repo.Company().Create(ctx, company)).Required()

		got, err := repo.Company().GetByAPIKey(ctx, company.APIKey)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(company.ID)

		_, err = repo.Company().GetByAPIKey(ctx, company.APIKey+"x")
		gt.Error(t, err).Is(interfaces.ErrNotFound)

		_, err = repo.Company().GetByAPIKey(ctx, "")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("Create rejects duplicate API key", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first := newTestCompany(t, "First")
		gt.NoError(t, repo.Company().Create(ctx, first)).Required()

		second := newTestCompany(t, "Second")
		second.APIKey = first.APIKey
		gt.Error(t, repo.Company().Create(ctx, second)).Is(interfaces.ErrDuplicateAPIKey)

		_, err := repo.Company().Get(ctx, second.ID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("List returns creation order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		var ids []types.CompanyID
		for i, name := range []string{"A", "B", "C"} {
			c := newTestCompany(t, name)
			c.CreatedAt = c.CreatedAt.Add(time.Duration(i) * time.Second)
			gt.NoError(t, repo.Company().Create(ctx, c)).Required()
			ids = append(ids, c.ID)
		}

		companies, err := repo.Company().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, companies).Length(3).Required()
		for i, c := range companies {
			gt.Value(t, c.ID).Equal(ids[i])
		}
	})
}
