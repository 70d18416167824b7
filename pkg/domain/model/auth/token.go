package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

// DefaultTokenLifetime is how long a tenant login stays valid
const DefaultTokenLifetime = 24 * time.Hour

// ErrNoTokenInContext is returned when the request carries no authenticated token
var ErrNoTokenInContext = goerr.New("no token in context")

// TokenID identifies an issued login token
type TokenID string

// Validate checks if the TokenID is a UUID
func (id TokenID) Validate() error {
	if id == "" {
		return goerr.New("token ID cannot be empty")
	}
	if _, err := uuid.Parse(string(id)); err != nil {
		return goerr.Wrap(err, "token ID must be a UUID", goerr.V("token_id", id))
	}
	return nil
}

func (id TokenID) String() string {
	return string(id)
}

// TokenSecret is the secret half of a login token
type TokenSecret string

func (s TokenSecret) String() string {
	return string(s)
}

// Token binds a login to a company and its conversation session
type Token struct {
	ID        TokenID
	Secret    TokenSecret `masq:"secret"`
	Sub       types.CompanyID
	SessionID types.SessionID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewToken issues a token for the company session
func NewToken(companyID types.CompanyID, sessionID types.SessionID, now time.Time) (*Token, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, goerr.Wrap(err, "failed to generate token secret")
	}

	return &Token{
		ID:        TokenID(uuid.New().String()),
		Secret:    TokenSecret(hex.EncodeToString(buf)),
		Sub:       companyID,
		SessionID: sessionID,
		ExpiresAt: now.Add(DefaultTokenLifetime),
		CreatedAt: now,
	}, nil
}

// Validate checks required fields
func (t *Token) Validate() error {
	if err := t.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token ID")
	}
	if t.Secret == "" {
		return goerr.New("token secret cannot be empty", goerr.V("token_id", t.ID))
	}
	if err := t.Sub.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token subject", goerr.V("token_id", t.ID))
	}
	if err := t.SessionID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token session", goerr.V("token_id", t.ID))
	}
	return nil
}

// IsExpired reports whether the token is no longer usable at now
func (t *Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// MatchSecret compares the secret in constant time
func (t *Token) MatchSecret(secret TokenSecret) bool {
	return subtle.ConstantTimeCompare([]byte(t.Secret), []byte(secret)) == 1
}

type ctxTokenKey struct{}

// ContextWithToken stores the authenticated token in the context
func ContextWithToken(ctx context.Context, token *Token) context.Context {
	return context.WithValue(ctx, ctxTokenKey{}, token)
}

// TokenFromContext returns the authenticated token stored in the context
func TokenFromContext(ctx context.Context) (*Token, error) {
	token, ok := ctx.Value(ctxTokenKey{}).(*Token)
	if !ok || token == nil {
		return nil, ErrNoTokenInContext
	}
	return token, nil
}
