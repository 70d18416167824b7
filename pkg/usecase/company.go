package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
	"github.com/secmon-lab/cottus/pkg/utils/metrics"
)

// maxAPIKeyAttempts bounds regeneration after an API key collision
const maxAPIKeyAttempts = 5

// CompanyUseCase manages tenants and their credentials
type CompanyUseCase struct {
	repo interfaces.Repository
	now  func() time.Time
}

func NewCompanyUseCase(repo interfaces.Repository, now func() time.Time) *CompanyUseCase {
	return &CompanyUseCase{
		repo: repo,
		now:  now,
	}
}

// CreateCompany registers a tenant with a fresh ID and API key
func (uc *CompanyUseCase) CreateCompany(ctx context.Context, name, contactName, email string) (*model.Company, error) {
	company := &model.Company{
		Name:        strings.TrimSpace(name),
		ContactName: strings.TrimSpace(contactName),
		Email:       strings.TrimSpace(email),
	}
	if err := company.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidCompany, "invalid company fields", goerr.V("cause", err.Error()))
	}

	for attempt := 1; attempt <= maxAPIKeyAttempts; attempt++ {
		key, err := types.NewAPIKey()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to issue API key")
		}

		company.ID = types.NewCompanyID()
		company.APIKey = key
		company.CreatedAt = uc.now()

		err = uc.repo.Company().Create(ctx, company)
		if errors.Is(err, interfaces.ErrDuplicateAPIKey) {
			logging.From(ctx).Warn("API key collision, regenerating", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create company", goerr.V(CompanyIDKey, company.ID))
		}

		metrics.CompaniesCreated.Inc()
		logging.From(ctx).Info("company created", "company_id", company.ID, "company_name", company.Name)
		return company, nil
	}

	return nil, goerr.New("could not issue a unique API key", goerr.V("attempts", maxAPIKeyAttempts))
}

// Authenticate returns the company holding exactly this API key
func (uc *CompanyUseCase) Authenticate(ctx context.Context, apiKey types.APIKey) (*model.Company, error) {
	if apiKey == "" {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, goerr.Wrap(ErrAuthFailure, "empty API key")
	}

	company, err := uc.repo.Company().GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			return nil, goerr.Wrap(ErrAuthFailure, "no company matches the API key")
		}
		return nil, goerr.Wrap(err, "failed to look up API key")
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return company, nil
}

// GetCompany retrieves a company by ID
func (uc *CompanyUseCase) GetCompany(ctx context.Context, id types.CompanyID) (*model.Company, error) {
	company, err := uc.repo.Company().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrCompanyNotFound, "company not found", goerr.V(CompanyIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get company", goerr.V(CompanyIDKey, id))
	}
	return company, nil
}

// ListCompanies retrieves all companies in creation order
func (uc *CompanyUseCase) ListCompanies(ctx context.Context) ([]*model.Company, error) {
	companies, err := uc.repo.Company().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list companies")
	}
	return companies, nil
}
