package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cottus/pkg/domain/model/auth"
	"github.com/secmon-lab/cottus/pkg/usecase"
)

func TestAuthUseCase_Login(t *testing.T) {
	t.Run("issues token bound to a new session", func(t *testing.T) {
		uc, _ := newUseCases(t)
		ctx := context.Background()
		company := createCompany(t, uc, "Acme")

		result, err := uc.Auth.Login(ctx, company.APIKey)
		gt.NoError(t, err).Required()
		gt.Value(t, result.Company.ID).Equal(company.ID)
		gt.Value(t, result.Token.Sub).Equal(company.ID)
		gt.Value(t, result.Token.SessionID).Equal(result.Session.ID)

		active, err := uc.Conversation.ActiveSession(ctx, company.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, active.ID).Equal(result.Session.ID)
	})

	t.Run("each login starts a fresh session", func(t *testing.T) {
		uc, _ := newUseCases(t)
		ctx := context.Background()
		company := createCompany(t, uc, "Acme")

		first, err := uc.Auth.Login(ctx, company.APIKey)
		gt.NoError(t, err).Required()
		second, err := uc.Auth.Login(ctx, company.APIKey)
		gt.NoError(t, err).Required()
		gt.Value(t, first.Session.ID).NotEqual(second.Session.ID)
		gt.Value(t, first.Token.ID).NotEqual(second.Token.ID)
	})

	t.Run("unknown key", func(t *testing.T) {
		uc, _ := newUseCases(t)
		_, err := uc.Auth.Login(context.Background(), "lp_00000000000000000000000000000000")
		gt.Error(t, err).Is(usecase.ErrAuthFailure)
	})
}

func TestAuthUseCase_ValidateToken(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		uc, _ := newUseCases(t)
		ctx := context.Background()
		company := createCompany(t, uc, "Acme")
		result, err := uc.Auth.Login(ctx, company.APIKey)
		gt.NoError(t, err).Required()

		token, err := uc.Auth.ValidateToken(ctx, result.Token.ID, result.Token.Secret)
		gt.NoError(t, err).Required()
		gt.Value(t, token.Sub).Equal(company.ID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		uc, _ := newUseCases(t)
		ctx := context.Background()
		company := createCompany(t, uc, "Acme")
		result, err := uc.Auth.Login(ctx, company.APIKey)
		gt.NoError(t, err).Required()

		_, err = uc.Auth.ValidateToken(ctx, result.Token.ID, "wrong")
		gt.Error(t, err).Is(usecase.ErrInvalidToken)
	})

	t.Run("malformed id", func(t *testing.T) {
		uc, _ := newUseCases(t)
		_, err := uc.Auth.ValidateToken(context.Background(), "not-a-uuid", "secret")
		gt.Error(t, err).Is(usecase.ErrInvalidToken)
	})

	t.Run("unknown id", func(t *testing.T) {
		uc, _ := newUseCases(t)
		_, err := uc.Auth.ValidateToken(context.Background(), auth.TokenID("0190f3a0-0000-7000-8000-000000000000"), "secret")
		gt.Error(t, err).Is(usecase.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		clock := newFakeClock()
		uc, _ := newUseCases(t, usecase.WithClock(clock.Now))
		ctx := context.Background()
		company := createCompany(t, uc, "Acme")
		result, err := uc.Auth.Login(ctx, company.APIKey)
		gt.NoError(t, err).Required()

		clock.Advance(auth.DefaultTokenLifetime + time.Second)
		_, err = uc.Auth.ValidateToken(ctx, result.Token.ID, result.Token.Secret)
		gt.Error(t, err).Is(usecase.ErrInvalidToken)
	})
}

func TestAuthUseCase_Logout(t *testing.T) {
	uc, _ := newUseCases(t)
	ctx := context.Background()
	company := createCompany(t, uc, "Acme")
	result, err := uc.Auth.Login(ctx, company.APIKey)
	gt.NoError(t, err).Required()

	gt.NoError(t, uc.Auth.Logout(ctx, result.Token.ID)).Required()
	_, err = uc.Auth.ValidateToken(ctx, result.Token.ID, result.Token.Secret)
	gt.Error(t, err).Is(usecase.ErrInvalidToken)

	gt.NoError(t, uc.Auth.Logout(ctx, result.Token.ID))
}
