package redis

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

type companyRepository struct {
	client *redis.Client
	keys   keySpace
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	if err := company.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid company ID")
	}
	if err := company.APIKey.Validate(); err != nil {
		return goerr.Wrap(err, "invalid API key", goerr.V("company_id", company.ID))
	}

	data, err := encodeJSON(company)
	if err != nil {
		return err
	}

	companyKey := r.keys.company(company.ID.String())
	apiKeyKey := r.keys.companyAPIKey(company.APIKey.String())

	return watch(ctx, r.client, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, apiKeyKey, companyKey).Result()
		if err != nil {
			return goerr.Wrap(err, "failed to check company keys")
		}
		if n > 0 {
			if exists, _ := tx.Exists(ctx, apiKeyKey).Result(); exists > 0 {
				return goerr.Wrap(ErrDuplicateAPIKey, "API key collision", goerr.V("company_id", company.ID))
			}
			return goerr.New("company already exists", goerr.V("company_id", company.ID))
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, companyKey, data, 0)
			pipe.Set(ctx, apiKeyKey, company.ID.String(), 0)
			pipe.RPush(ctx, r.keys.companies(), company.ID.String())
			return nil
		})
		return err
	}, apiKeyKey, companyKey)
}

func (r *companyRepository) Get(ctx context.Context, id types.CompanyID) (*model.Company, error) {
	var company model.Company
	if err := getJSON(ctx, r.client, r.keys.company(id.String()), &company); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "company not found", goerr.V("company_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get company", goerr.V("company_id", id))
	}
	return &company, nil
}

func (r *companyRepository) GetByAPIKey(ctx context.Context, key types.APIKey) (*model.Company, error) {
	if key == "" {
		return nil, goerr.Wrap(ErrNotFound, "no company holds the API key")
	}

	id, err := r.client.Get(ctx, r.keys.companyAPIKey(key.String())).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, goerr.Wrap(ErrNotFound, "no company holds the API key")
		}
		return nil, goerr.Wrap(err, "failed to look up API key")
	}

	return r.Get(ctx, types.CompanyID(id))
}

func (r *companyRepository) List(ctx context.Context) ([]*model.Company, error) {
	ids, err := r.client.LRange(ctx, r.keys.companies(), 0, -1).Result()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list company IDs")
	}

	companies := make([]*model.Company, 0, len(ids))
	if len(ids) == 0 {
		return companies, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.keys.company(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get companies")
	}

	for i, v := range values {
		data, ok := v.(string)
		if !ok {
			return nil, goerr.New("company listed but missing", goerr.V("company_id", ids[i]))
		}
		var company model.Company
		if err := unmarshalString(data, &company); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal company", goerr.V("company_id", ids[i]))
		}
		companies = append(companies, &company)
	}

	return companies, nil
}
