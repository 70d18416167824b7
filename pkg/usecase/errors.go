package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Authentication errors
	ErrAuthFailure  = errors.New("authentication failed")
	ErrInvalidToken = errors.New("invalid or expired token")

	// Not found errors
	ErrCompanyNotFound = errors.New("company not found")
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrSessionNotFound = errors.New("session not found")

	// Conversation errors
	ErrEmptyMessage  = errors.New("message is empty")
	ErrReplyInFlight = errors.New("a reply is already being generated for this session")

	// Other errors
	ErrInvalidCompany = errors.New("invalid company")
)

// Context keys for error values
const (
	CompanyIDKey = "company_id"
	TicketIDKey  = "ticket_id"
	SessionIDKey = "session_id"
)
