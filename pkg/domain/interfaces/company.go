package interfaces

import (
	"context"

	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

type CompanyRepository interface {
	// Create stores a new company. It fails with ErrDuplicateAPIKey when
	// another company already holds the same API key.
	Create(ctx context.Context, company *model.Company) error

	// Get retrieves a company by ID
	Get(ctx context.Context, id types.CompanyID) (*model.Company, error)

	// GetByAPIKey retrieves the company holding exactly this API key
	GetByAPIKey(ctx context.Context, key types.APIKey) (*model.Company, error)

	// List retrieves all companies in creation order
	List(ctx context.Context) ([]*model.Company, error)
}
