package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type companyDocument struct {
	ID          string    `firestore:"id"`
	Name        string    `firestore:"name"`
	ContactName string    `firestore:"contact_name"`
	Email       string    `firestore:"email"`
	APIKey      string    `firestore:"api_key"`
	CreatedAt   time.Time `firestore:"created_at"`
}

// apiKeyDocument reserves an API key for a single company
type apiKeyDocument struct {
	CompanyID string `firestore:"company_id"`
}

func (d *companyDocument) toModel() *model.Company {
	return &model.Company{
		ID:          types.CompanyID(d.ID),
		Name:        d.Name,
		ContactName: d.ContactName,
		Email:       d.Email,
		APIKey:      types.APIKey(d.APIKey),
		CreatedAt:   d.CreatedAt,
	}
}

type companyRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCompanyRepository(client *firestore.Client) *companyRepository {
	return &companyRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *companyRepository) companiesCollection() string {
	return CollectionName(r.collectionPrefix, "companies")
}

func (r *companyRepository) apiKeysCollection() string {
	return CollectionName(r.collectionPrefix, "company_api_keys")
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	if err := company.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid company ID")
	}
	if err := company.APIKey.Validate(); err != nil {
		return goerr.Wrap(err, "invalid API key", goerr.V("company_id", company.ID))
	}

	companyRef := r.client.Collection(r.companiesCollection()).Doc(company.ID.String())
	keyRef := r.client.Collection(r.apiKeysCollection()).Doc(company.APIKey.String())

	doc := &companyDocument{
		ID:          company.ID.String(),
		Name:        company.Name,
		ContactName: company.ContactName,
		Email:       company.Email,
		APIKey:      company.APIKey.String(),
		CreatedAt:   company.CreatedAt,
	}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(keyRef); err == nil {
			return goerr.Wrap(ErrDuplicateAPIKey, "API key collision", goerr.V("company_id", company.ID))
		} else if status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to check API key")
		}

		if err := tx.Create(companyRef, doc); err != nil {
			return goerr.Wrap(err, "failed to create company")
		}
		return tx.Create(keyRef, &apiKeyDocument{CompanyID: company.ID.String()})
	})
	if err != nil {
		return goerr.Wrap(err, "failed to store company", goerr.V("company_id", company.ID))
	}

	return nil
}

func (r *companyRepository) Get(ctx context.Context, id types.CompanyID) (*model.Company, error) {
	doc, err := r.client.Collection(r.companiesCollection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "company not found", goerr.V("company_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get company", goerr.V("company_id", id))
	}

	var companyDoc companyDocument
	if err := doc.DataTo(&companyDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal company", goerr.V("company_id", id))
	}

	return companyDoc.toModel(), nil
}

func (r *companyRepository) GetByAPIKey(ctx context.Context, key types.APIKey) (*model.Company, error) {
	if key == "" {
		return nil, goerr.Wrap(ErrNotFound, "no company holds the API key")
	}

	doc, err := r.client.Collection(r.apiKeysCollection()).Doc(key.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "no company holds the API key")
		}
		return nil, goerr.Wrap(err, "failed to look up API key")
	}

	var keyDoc apiKeyDocument
	if err := doc.DataTo(&keyDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal API key reservation")
	}

	return r.Get(ctx, types.CompanyID(keyDoc.CompanyID))
}

func (r *companyRepository) List(ctx context.Context) ([]*model.Company, error) {
	iter := r.client.Collection(r.companiesCollection()).
		OrderBy("created_at", firestore.Asc).
		OrderBy("id", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	companies := make([]*model.Company, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate companies")
		}

		var companyDoc companyDocument
		if err := doc.DataTo(&companyDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal company")
		}
		companies = append(companies, companyDoc.toModel())
	}

	return companies, nil
}
