package http

import (
	"net/http"
	"time"

	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/model/auth"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"github.com/secmon-lab/cottus/pkg/usecase"
	"github.com/secmon-lab/cottus/pkg/utils/errutil"
)

type loginRequest struct {
	APIKey string `json:"api_key"`
}

type loginResponse struct {
	Company      companyView     `json:"company"`
	Conversation conversationView `json:"conversation"`
}

type meResponse struct {
	Company   companyView     `json:"company"`
	SessionID types.SessionID `json:"session_id"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// companyView is the tenant facing company record without the API key
type companyView struct {
	ID          types.CompanyID `json:"id"`
	Name        string          `json:"company_name"`
	ContactName string          `json:"contact_name"`
	Email       string          `json:"email"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newCompanyView(c *model.Company) companyView {
	return companyView{
		ID:          c.ID,
		Name:        c.Name,
		ContactName: c.ContactName,
		Email:       c.Email,
		CreatedAt:   c.CreatedAt,
	}
}

func authCookie(name, value string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	}
}

func clearCookie(name string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}

// loginHandler exchanges an API key for login cookies and a new session
func loginHandler(uc *usecase.UseCases, secureCookie bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		result, err := uc.Auth.Login(r.Context(), types.APIKey(req.APIKey))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		view, err := buildConversationView(r.Context(), uc, result.Session.ID)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		secure := secureCookie || r.TLS != nil
		http.SetCookie(w, authCookie(tokenIDCookie, result.Token.ID.String(), result.Token.ExpiresAt, secure))
		http.SetCookie(w, authCookie(tokenSecretCookie, result.Token.Secret.String(), result.Token.ExpiresAt, secure))

		writeJSON(r.Context(), w, http.StatusOK, loginResponse{
			Company:      newCompanyView(result.Company),
			Conversation: *view,
		})
	}
}

// logoutHandler revokes the token, if any, and clears the cookies
func logoutHandler(uc *usecase.UseCases, secureCookie bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if idCookie, err := r.Cookie(tokenIDCookie); err == nil {
			if err := uc.Auth.Logout(r.Context(), auth.TokenID(idCookie.Value)); err != nil {
				errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
				return
			}
		}

		secure := secureCookie || r.TLS != nil
		http.SetCookie(w, clearCookie(tokenIDCookie, secure))
		http.SetCookie(w, clearCookie(tokenSecretCookie, secure))

		writeJSON(r.Context(), w, http.StatusOK, successResponse{Success: true})
	}
}

// meHandler returns the logged-in company
func meHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.TokenFromContext(r.Context())
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusUnauthorized)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, meResponse{
			Company:   newCompanyView(companyFromContext(r.Context())),
			SessionID: token.SessionID,
			ExpiresAt: token.ExpiresAt,
		})
	}
}
