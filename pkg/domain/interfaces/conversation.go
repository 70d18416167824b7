package interfaces

import (
	"context"

	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

// ConversationRepository stores sessions and their ordered turns
type ConversationRepository interface {
	// CreateSession stores a session and makes it the company's active one
	CreateSession(ctx context.Context, session *model.Session) error

	// GetSession retrieves a session by ID
	GetSession(ctx context.Context, id types.SessionID) (*model.Session, error)

	// GetActiveSession retrieves the latest session of a company
	GetActiveSession(ctx context.Context, companyID types.CompanyID) (*model.Session, error)

	// AppendTurns adds turns to the end of the session log
	AppendTurns(ctx context.Context, sessionID types.SessionID, turns ...model.Turn) error

	// ListTurns retrieves the session log in append order
	ListTurns(ctx context.Context, sessionID types.SessionID) ([]model.Turn, error)
}
