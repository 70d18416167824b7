package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/model/config"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"github.com/secmon-lab/cottus/pkg/service/payload"
	"github.com/secmon-lab/cottus/pkg/utils/errutil"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
	"github.com/secmon-lab/cottus/pkg/utils/metrics"
)

// TurnResult is the outcome of one user turn
type TurnResult struct {
	// Turn is the assistant turn appended to the log, as stored
	Turn model.Turn
	// DisplayContent is Turn.Content without the ticket block
	DisplayContent string
	// Tickets registered from the reply, in declared order
	Tickets []*model.Ticket
	// Failed is true when the completion service failed and Turn is the apology
	Failed bool
}

// ConversationUseCase runs tenant chat sessions against the completion service
type ConversationUseCase struct {
	repo         interfaces.Repository
	completer    interfaces.Completer
	tickets      *TicketUseCase
	persona      *config.Persona
	systemPrompt string
	timeout      time.Duration
	now          func() time.Time

	mu       sync.Mutex
	inflight map[types.SessionID]struct{}
}

func NewConversationUseCase(repo interfaces.Repository, completer interfaces.Completer, tickets *TicketUseCase, persona *config.Persona, timeout time.Duration, now func() time.Time) (*ConversationUseCase, error) {
	persona = persona.WithDefaults()

	systemPrompt, err := renderSystemPrompt(persona)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid system prompt")
	}
	if persona.Greeting != "" {
		if _, err := template.New("greeting").Parse(persona.Greeting); err != nil {
			return nil, goerr.Wrap(err, "invalid greeting template")
		}
	}
	if timeout <= 0 {
		timeout = DefaultCompletionTimeout
	}

	return &ConversationUseCase{
		repo:         repo,
		completer:    completer,
		tickets:      tickets,
		persona:      persona,
		systemPrompt: systemPrompt,
		timeout:      timeout,
		now:          now,
		inflight:     make(map[types.SessionID]struct{}),
	}, nil
}

// SystemPrompt returns the rendered system instructions
func (uc *ConversationUseCase) SystemPrompt() string {
	return uc.systemPrompt
}

// StartSession opens a new session for the company and makes it active. The
// configured greeting, if any, becomes the first turn.
func (uc *ConversationUseCase) StartSession(ctx context.Context, company *model.Company) (*model.Session, error) {
	session := &model.Session{
		ID:        types.NewSessionID(),
		CompanyID: company.ID,
		StartedAt: uc.now(),
	}

	if err := uc.repo.Conversation().CreateSession(ctx, session); err != nil {
		return nil, goerr.Wrap(err, "failed to create session", goerr.V(CompanyIDKey, company.ID))
	}

	if uc.persona.Greeting != "" {
		greeting, err := renderTemplate("greeting", uc.persona.Greeting, promptData{
			VendorName:  uc.persona.VendorName,
			Language:    uc.persona.Language,
			CompanyName: company.Name,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to render greeting", goerr.V(CompanyIDKey, company.ID))
		}
		if err := uc.repo.Conversation().AppendTurns(ctx, session.ID, model.AssistantTurn(greeting)); err != nil {
			return nil, goerr.Wrap(err, "failed to append greeting", goerr.V(SessionIDKey, session.ID))
		}
	}

	logging.From(ctx).Info("session started", "company_id", company.ID, "session_id", session.ID)
	return session, nil
}

// ActiveSession returns the latest session of the company
func (uc *ConversationUseCase) ActiveSession(ctx context.Context, companyID types.CompanyID) (*model.Session, error) {
	session, err := uc.repo.Conversation().GetActiveSession(ctx, companyID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrSessionNotFound, "no active session", goerr.V(CompanyIDKey, companyID))
		}
		return nil, goerr.Wrap(err, "failed to get active session", goerr.V(CompanyIDKey, companyID))
	}
	return session, nil
}

// Turns returns the session log in order
func (uc *ConversationUseCase) Turns(ctx context.Context, sessionID types.SessionID) ([]model.Turn, error) {
	turns, err := uc.repo.Conversation().ListTurns(ctx, sessionID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrSessionNotFound, "session not found", goerr.V(SessionIDKey, sessionID))
		}
		return nil, goerr.Wrap(err, "failed to list turns", goerr.V(SessionIDKey, sessionID))
	}
	return turns, nil
}

// State reports whether a reply is being generated for the session
func (uc *ConversationUseCase) State(sessionID types.SessionID) model.SessionState {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, ok := uc.inflight[sessionID]; ok {
		return model.SessionStateAwaitingReply
	}
	return model.SessionStateIdle
}

func (uc *ConversationUseCase) acquire(sessionID types.SessionID) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, ok := uc.inflight[sessionID]; ok {
		return false
	}
	uc.inflight[sessionID] = struct{}{}
	return true
}

func (uc *ConversationUseCase) release(sessionID types.SessionID) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.inflight, sessionID)
}

// SubmitUserTurn appends the user's message, asks the completion service for
// a reply and registers any tickets the reply declares. A completion failure
// is not returned; the fixed apology is recorded as the reply instead.
func (uc *ConversationUseCase) SubmitUserTurn(ctx context.Context, company *model.Company, sessionID types.SessionID, text string) (*TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(ErrEmptyMessage, "empty user turn", goerr.V(SessionIDKey, sessionID))
	}

	session, err := uc.repo.Conversation().GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrSessionNotFound, "session not found", goerr.V(SessionIDKey, sessionID))
		}
		return nil, goerr.Wrap(err, "failed to get session", goerr.V(SessionIDKey, sessionID))
	}
	if session.CompanyID != company.ID {
		return nil, goerr.Wrap(ErrSessionNotFound, "session belongs to another company",
			goerr.V(SessionIDKey, sessionID), goerr.V(CompanyIDKey, company.ID))
	}

	// A later login replaces the active session; its predecessor is read only.
	active, err := uc.ActiveSession(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	if active.ID != sessionID {
		return nil, goerr.Wrap(ErrSessionNotFound, "session is no longer active",
			goerr.V(SessionIDKey, sessionID), goerr.V("active_session_id", active.ID))
	}

	if !uc.acquire(sessionID) {
		return nil, goerr.Wrap(ErrReplyInFlight, "reply already in flight", goerr.V(SessionIDKey, sessionID))
	}
	defer uc.release(sessionID)

	ctx = logging.With(ctx, logging.From(ctx).With("session_id", sessionID, "company_id", company.ID))

	if err := uc.repo.Conversation().AppendTurns(ctx, sessionID, model.UserTurn(text)); err != nil {
		return nil, goerr.Wrap(err, "failed to append user turn", goerr.V(SessionIDKey, sessionID))
	}

	history, err := uc.repo.Conversation().ListTurns(ctx, sessionID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list turns", goerr.V(SessionIDKey, sessionID))
	}

	reply, err := uc.complete(ctx, history)
	if err != nil {
		errutil.Handle(ctx, err, "completion service failed")

		apology := model.AssistantTurn(uc.persona.Apology)
		if err := uc.repo.Conversation().AppendTurns(ctx, sessionID, apology); err != nil {
			return nil, goerr.Wrap(err, "failed to append apology turn", goerr.V(SessionIDKey, sessionID))
		}
		return &TurnResult{
			Turn:           apology,
			DisplayContent: apology.Content,
			Tickets:        []*model.Ticket{},
			Failed:         true,
		}, nil
	}

	assistant := model.AssistantTurn(reply)
	if err := uc.repo.Conversation().AppendTurns(ctx, sessionID, assistant); err != nil {
		return nil, goerr.Wrap(err, "failed to append assistant turn", goerr.V(SessionIDKey, sessionID))
	}

	drafts := payload.Extract(ctx, reply)
	tickets, err := uc.tickets.RegisterBatch(ctx, company.ID, company.Name, drafts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to register tickets from reply", goerr.V(SessionIDKey, sessionID))
	}

	return &TurnResult{
		Turn:           assistant,
		DisplayContent: payload.Strip(reply),
		Tickets:        tickets,
	}, nil
}

// complete calls the completion service with the session history, bounded by
// the configured timeout
func (uc *ConversationUseCase) complete(ctx context.Context, history []model.Turn) (string, error) {
	if uc.completer == nil {
		return "", goerr.New("no completion service configured")
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	started := time.Now()
	reply, err := uc.completer.Complete(ctx, uc.systemPrompt, model.CopyTurns(history))
	elapsed := time.Since(started).Seconds()
	if err != nil {
		metrics.CompletionLatency.WithLabelValues("failure").Observe(elapsed)
		return "", goerr.Wrap(err, "completion request failed", goerr.V("turns", len(history)))
	}
	if strings.TrimSpace(reply) == "" {
		metrics.CompletionLatency.WithLabelValues("failure").Observe(elapsed)
		return "", goerr.New("completion service returned no text", goerr.V("turns", len(history)))
	}

	metrics.CompletionLatency.WithLabelValues("success").Observe(elapsed)
	return reply, nil
}
