package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

type conversationRepository struct {
	mu       sync.RWMutex
	sessions map[types.SessionID]*model.Session
	turns    map[types.SessionID][]model.Turn
	active   map[types.CompanyID]types.SessionID
}

func newConversationRepository() *conversationRepository {
	return &conversationRepository{
		sessions: make(map[types.SessionID]*model.Session),
		turns:    make(map[types.SessionID][]model.Turn),
		active:   make(map[types.CompanyID]types.SessionID),
	}
}

func (r *conversationRepository) CreateSession(ctx context.Context, session *model.Session) error {
	if err := session.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid session ID")
	}
	if err := session.CompanyID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid company ID", goerr.V("session_id", session.ID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return goerr.New("session already exists", goerr.V("session_id", session.ID))
	}

	copied := *session
	r.sessions[session.ID] = &copied
	r.turns[session.ID] = []model.Turn{}
	r.active[session.CompanyID] = session.ID
	return nil
}

func (r *conversationRepository) GetSession(ctx context.Context, id types.SessionID) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "session not found", goerr.V("session_id", id))
	}
	copied := *session
	return &copied, nil
}

func (r *conversationRepository) GetActiveSession(ctx context.Context, companyID types.CompanyID) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.active[companyID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "no active session", goerr.V("company_id", companyID))
	}
	copied := *r.sessions[id]
	return &copied, nil
}

func (r *conversationRepository) AppendTurns(ctx context.Context, sessionID types.SessionID, turns ...model.Turn) error {
	for _, turn := range turns {
		if !turn.Role.IsValid() {
			return goerr.New("invalid turn role", goerr.V("session_id", sessionID), goerr.V("role", turn.Role))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[sessionID]; !exists {
		return goerr.Wrap(ErrNotFound, "session not found", goerr.V("session_id", sessionID))
	}
	r.turns[sessionID] = append(r.turns[sessionID], turns...)
	return nil
}

func (r *conversationRepository) ListTurns(ctx context.Context, sessionID types.SessionID) ([]model.Turn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	turns, exists := r.turns[sessionID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "session not found", goerr.V("session_id", sessionID))
	}
	return model.CopyTurns(turns), nil
}
