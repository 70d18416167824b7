package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"github.com/secmon-lab/cottus/pkg/usecase"
)

type ticketsResponse struct {
	Tickets []*model.Ticket `json:"tickets"`
}

func listTenantTicketsHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company := companyFromContext(r.Context())
		tickets, err := uc.Ticket.ListForCompany(r.Context(), company.ID)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, ticketsResponse{Tickets: tickets})
	}
}

func listAllTicketsHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tickets, err := uc.Ticket.ListAll(r.Context())
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, ticketsResponse{Tickets: tickets})
	}
}

// completeTicketHandler marks a ticket completed. Completing it again
// returns the stored ticket unchanged.
func completeTicketHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := types.TicketID(chi.URLParam(r, "ticketID"))

		ticket, err := uc.Ticket.Complete(r.Context(), id)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, ticket)
	}
}
