package http

import (
	"net/http"

	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/usecase"
)

type createCompanyRequest struct {
	Name        string `json:"name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
}

type companiesResponse struct {
	Companies []*model.Company `json:"companies"`
}

// createCompanyHandler registers a tenant. The response carries the issued
// API key.
func createCompanyHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCompanyRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		company, err := uc.Company.CreateCompany(r.Context(), req.Name, req.ContactName, req.Email)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusCreated, company)
	}
}

func listCompaniesHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companies, err := uc.Company.ListCompanies(r.Context())
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, companiesResponse{Companies: companies})
	}
}
