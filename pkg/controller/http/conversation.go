package http

import (
	"context"
	"net/http"

	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/model/auth"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"github.com/secmon-lab/cottus/pkg/service/payload"
	"github.com/secmon-lab/cottus/pkg/usecase"
	"github.com/secmon-lab/cottus/pkg/utils/errutil"
)

type turnView struct {
	Role           types.Role `json:"role"`
	Content        string     `json:"content"`
	DisplayContent string     `json:"display_content"`
}

func newTurnView(turn model.Turn) turnView {
	display := turn.Content
	if turn.Role == types.RoleAssistant {
		display = payload.Strip(turn.Content)
	}
	return turnView{
		Role:           turn.Role,
		Content:        turn.Content,
		DisplayContent: display,
	}
}

type conversationView struct {
	SessionID types.SessionID    `json:"session_id"`
	State     model.SessionState `json:"state"`
	Turns     []turnView         `json:"turns"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	Turn    turnView        `json:"turn"`
	Tickets []*model.Ticket `json:"tickets"`
	Failed  bool            `json:"failed"`
}

func buildConversationView(ctx context.Context, uc *usecase.UseCases, sessionID types.SessionID) (*conversationView, error) {
	turns, err := uc.Conversation.Turns(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	views := make([]turnView, len(turns))
	for i, turn := range turns {
		views[i] = newTurnView(turn)
	}

	return &conversationView{
		SessionID: sessionID,
		State:     uc.Conversation.State(sessionID),
		Turns:     views,
	}, nil
}

// getConversationHandler returns the session bound to the login
func getConversationHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.TokenFromContext(r.Context())
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusUnauthorized)
			return
		}

		view, err := buildConversationView(r.Context(), uc, token.SessionID)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, view)
	}
}

// postMessageHandler submits a user turn and waits for the assistant reply
func postMessageHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.TokenFromContext(r.Context())
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusUnauthorized)
			return
		}

		var req messageRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		result, err := uc.Conversation.SubmitUserTurn(r.Context(), companyFromContext(r.Context()), token.SessionID, req.Text)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, messageResponse{
			Turn: turnView{
				Role:           result.Turn.Role,
				Content:        result.Turn.Content,
				DisplayContent: result.DisplayContent,
			},
			Tickets: result.Tickets,
			Failed:  result.Failed,
		})
	}
}
