package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/model/auth"
)

// tokenStore keeps login tokens by value. Expired tokens are pruned whenever
// a new token is stored, so the map stays bounded by live sessions.
type tokenStore struct {
	mu     sync.RWMutex
	tokens map[auth.TokenID]auth.Token
}

func newTokenStore() *tokenStore {
	return &tokenStore{
		tokens: make(map[auth.TokenID]auth.Token),
	}
}

func (m *Memory) PutToken(ctx context.Context, token *auth.Token) error {
	if err := token.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token")
	}

	s := m.tokens
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, stored := range s.tokens {
		if stored.IsExpired(token.CreatedAt) {
			delete(s.tokens, id)
		}
	}
	s.tokens[token.ID] = *token
	return nil
}

func (m *Memory) GetToken(ctx context.Context, tokenID auth.TokenID) (*auth.Token, error) {
	if err := tokenID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid token ID")
	}

	s := m.tokens
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[tokenID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "token not found", goerr.V("token_id", tokenID))
	}
	return &token, nil
}

// DeleteToken removes the token. Deleting an unknown token reports ErrNotFound.
func (m *Memory) DeleteToken(ctx context.Context, tokenID auth.TokenID) error {
	if err := tokenID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token ID")
	}

	s := m.tokens
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[tokenID]; !ok {
		return goerr.Wrap(ErrNotFound, "token not found", goerr.V("token_id", tokenID))
	}
	delete(s.tokens, tokenID)
	return nil
}
