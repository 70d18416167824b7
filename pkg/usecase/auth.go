package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/model/auth"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
)

// LoginResult is a successful tenant login
type LoginResult struct {
	Token   *auth.Token
	Company *model.Company
	Session *model.Session
}

// AuthUseCase issues and checks tenant login tokens
type AuthUseCase struct {
	repo         interfaces.Repository
	companies    *CompanyUseCase
	conversation *ConversationUseCase
	cache        *authCache
	now          func() time.Time
}

func NewAuthUseCase(repo interfaces.Repository, companies *CompanyUseCase, conversation *ConversationUseCase, now func() time.Time) *AuthUseCase {
	return &AuthUseCase{
		repo:         repo,
		companies:    companies,
		conversation: conversation,
		cache:        newAuthCache(),
		now:          now,
	}
}

// Login authenticates the API key, starts a new conversation session for the
// company and issues a token bound to it
func (uc *AuthUseCase) Login(ctx context.Context, apiKey types.APIKey) (*LoginResult, error) {
	company, err := uc.companies.Authenticate(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	session, err := uc.conversation.StartSession(ctx, company)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to start session", goerr.V(CompanyIDKey, company.ID))
	}

	token, err := auth.NewToken(company.ID, session.ID, uc.now())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to issue token", goerr.V(CompanyIDKey, company.ID))
	}
	if err := uc.repo.PutToken(ctx, token); err != nil {
		return nil, goerr.Wrap(err, "failed to store token", goerr.V(CompanyIDKey, company.ID))
	}
	uc.cache.set(token)

	logging.From(ctx).Info("tenant logged in", "company_id", company.ID, "session_id", session.ID)
	return &LoginResult{
		Token:   token,
		Company: company,
		Session: session,
	}, nil
}

// ValidateToken returns the stored token when the secret matches and it has
// not expired
func (uc *AuthUseCase) ValidateToken(ctx context.Context, tokenID auth.TokenID, tokenSecret auth.TokenSecret) (*auth.Token, error) {
	if err := tokenID.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidToken, "malformed token ID")
	}

	token, ok := uc.cache.get(tokenID)
	if !ok {
		stored, err := uc.repo.GetToken(ctx, tokenID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil, goerr.Wrap(ErrInvalidToken, "unknown token", goerr.V("token_id", tokenID))
			}
			return nil, goerr.Wrap(err, "failed to get token", goerr.V("token_id", tokenID))
		}
		token = stored
	}

	if !token.MatchSecret(tokenSecret) {
		return nil, goerr.Wrap(ErrInvalidToken, "token secret mismatch", goerr.V("token_id", tokenID))
	}
	if token.IsExpired(uc.now()) {
		uc.cache.remove(tokenID)
		return nil, goerr.Wrap(ErrInvalidToken, "token expired", goerr.V("token_id", tokenID))
	}

	uc.cache.set(token)
	return token, nil
}

// Logout revokes the token. The next login starts a new session.
func (uc *AuthUseCase) Logout(ctx context.Context, tokenID auth.TokenID) error {
	uc.cache.remove(tokenID)

	if err := uc.repo.DeleteToken(ctx, tokenID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil
		}
		return goerr.Wrap(err, "failed to delete token", goerr.V("token_id", tokenID))
	}
	return nil
}
