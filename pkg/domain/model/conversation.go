package model

import (
	"time"

	"github.com/secmon-lab/cottus/pkg/domain/types"
)

// Turn is one message of a conversation. Turns are append-only.
type Turn struct {
	Role    types.Role `json:"role"`
	Content string     `json:"content"`
}

// UserTurn builds a turn authored by the tenant
func UserTurn(content string) Turn {
	return Turn{Role: types.RoleUser, Content: content}
}

// AssistantTurn builds a turn authored by the completion service
func AssistantTurn(content string) Turn {
	return Turn{Role: types.RoleAssistant, Content: content}
}

// Session is the conversation of one authenticated tenant. Only the latest
// session of a company is active.
type Session struct {
	ID        types.SessionID
	CompanyID types.CompanyID
	StartedAt time.Time
}

// SessionState is the reply state of a session
type SessionState string

const (
	SessionStateIdle          SessionState = "idle"
	SessionStateAwaitingReply SessionState = "awaiting_reply"
)

// CopyTurns creates a copy of a turn slice
func CopyTurns(turns []Turn) []Turn {
	copied := make([]Turn, len(turns))
	copy(copied, turns)
	return copied
}
