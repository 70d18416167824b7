package redis

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/model/auth"
)

func (r *Redis) PutToken(ctx context.Context, token *auth.Token) error {
	if err := token.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token")
	}

	data, err := encodeJSON(token)
	if err != nil {
		return err
	}

	// Expired tokens are dropped by the server
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}

	if err := r.client.Set(ctx, r.keys.token(token.ID.String()), data, ttl).Err(); err != nil {
		return goerr.Wrap(err, "failed to put token to redis")
	}
	return nil
}

func (r *Redis) GetToken(ctx context.Context, tokenID auth.TokenID) (*auth.Token, error) {
	if err := tokenID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid token ID")
	}

	var token auth.Token
	if err := getJSON(ctx, r.client, r.keys.token(tokenID.String()), &token); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "token not found", goerr.V("token_id", tokenID))
		}
		return nil, goerr.Wrap(err, "failed to get token from redis")
	}
	return &token, nil
}

func (r *Redis) DeleteToken(ctx context.Context, tokenID auth.TokenID) error {
	if err := tokenID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token ID")
	}

	n, err := r.client.Del(ctx, r.keys.token(tokenID.String())).Result()
	if err != nil {
		return goerr.Wrap(err, "failed to delete token from redis")
	}
	if n == 0 {
		return goerr.Wrap(ErrNotFound, "token not found", goerr.V("token_id", tokenID))
	}
	return nil
}
