package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

type companyRepository struct {
	mu        sync.RWMutex
	companies map[types.CompanyID]*model.Company
	byAPIKey  map[types.APIKey]types.CompanyID
	order     []types.CompanyID
}

func newCompanyRepository() *companyRepository {
	return &companyRepository{
		companies: make(map[types.CompanyID]*model.Company),
		byAPIKey:  make(map[types.APIKey]types.CompanyID),
	}
}

func copyCompany(c *model.Company) *model.Company {
	copied := *c
	return &copied
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	if err := company.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid company ID")
	}
	if err := company.APIKey.Validate(); err != nil {
		return goerr.Wrap(err, "invalid API key", goerr.V("company_id", company.ID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byAPIKey[company.APIKey]; exists {
		return goerr.Wrap(ErrDuplicateAPIKey, "API key collision", goerr.V("company_id", company.ID))
	}
	if _, exists := r.companies[company.ID]; exists {
		return goerr.New("company already exists", goerr.V("company_id", company.ID))
	}

	r.companies[company.ID] = copyCompany(company)
	r.byAPIKey[company.APIKey] = company.ID
	r.order = append(r.order, company.ID)
	return nil
}

func (r *companyRepository) Get(ctx context.Context, id types.CompanyID) (*model.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	company, exists := r.companies[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "company not found", goerr.V("company_id", id))
	}
	return copyCompany(company), nil
}

func (r *companyRepository) GetByAPIKey(ctx context.Context, key types.APIKey) (*model.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byAPIKey[key]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "no company holds the API key")
	}
	return copyCompany(r.companies[id]), nil
}

func (r *companyRepository) List(ctx context.Context) ([]*model.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	companies := make([]*model.Company, 0, len(r.order))
	for _, id := range r.order {
		companies = append(companies, copyCompany(r.companies[id]))
	}
	return companies, nil
}
