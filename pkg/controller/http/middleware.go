package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/model/auth"
	"github.com/secmon-lab/cottus/pkg/usecase"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
)

const (
	tokenIDCookie     = "token_id"
	tokenSecretCookie = "token_secret"
)

type ctxCompanyKey struct{}

func companyFromContext(ctx context.Context) *model.Company {
	company, _ := ctx.Value(ctxCompanyKey{}).(*model.Company)
	return company
}

// tenantAuthMiddleware validates the login cookies and puts the token and
// its company into the request context
func tenantAuthMiddleware(uc *usecase.UseCases) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idCookie, err := r.Cookie(tokenIDCookie)
			if err != nil {
				writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
				return
			}
			secretCookie, err := r.Cookie(tokenSecretCookie)
			if err != nil {
				writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
				return
			}

			token, err := uc.Auth.ValidateToken(r.Context(), auth.TokenID(idCookie.Value), auth.TokenSecret(secretCookie.Value))
			if err != nil {
				handleError(r.Context(), w, err)
				return
			}

			company, err := uc.Company.GetCompany(r.Context(), token.Sub)
			if err != nil {
				// a token of a vanished company is as good as no token
				handleError(r.Context(), w, usecase.ErrInvalidToken)
				return
			}

			ctx := auth.ContextWithToken(r.Context(), token)
			ctx = context.WithValue(ctx, ctxCompanyKey{}, company)
			ctx = logging.With(ctx, logging.From(ctx).With("company_id", company.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerTokenMiddleware requires "Authorization: Bearer <token>". An empty
// token leaves the routes open.
func bearerTokenMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Error: "invalid bearer token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
