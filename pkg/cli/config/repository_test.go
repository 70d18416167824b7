package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cottus/pkg/cli/config"
)

func TestRepository_Configure(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		repo, err := config.NewRepositoryForTest("memory", "", "").Configure(t.Context())
		gt.NoError(t, err).Required()
		gt.Value(t, repo).NotNil()
		gt.NoError(t, repo.Close())
	})

	t.Run("firestore requires project ID", func(t *testing.T) {
		_, err := config.NewRepositoryForTest("firestore", "", "").Configure(t.Context())
		gt.Error(t, err).Is(config.ErrMissingValue)
	})

	t.Run("redis requires URL", func(t *testing.T) {
		_, err := config.NewRepositoryForTest("redis", "", "").Configure(t.Context())
		gt.Error(t, err).Is(config.ErrMissingValue)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := config.NewRepositoryForTest("sqlite", "", "").Configure(t.Context())
		gt.Error(t, err).Is(config.ErrInvalidBackend)
	})

	t.Run("flags", func(t *testing.T) {
		var cfg config.Repository
		gt.Array(t, cfg.Flags()).Length(6)
	})
}
