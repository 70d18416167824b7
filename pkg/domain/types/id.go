package types

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/oklog/ulid/v2"
)

const (
	companyIDPrefix = "COMP-"
	ticketIDPrefix  = "TICKET-"
	apiKeyPrefix    = "lp_"

	// apiKeyEntropyBytes is the amount of random data behind an API key (128 bits)
	apiKeyEntropyBytes = 16
)

// CompanyID identifies a tenant
type CompanyID string

// NewCompanyID generates a time-ordered company identifier
func NewCompanyID() CompanyID {
	return CompanyID(companyIDPrefix + uuid.Must(uuid.NewV7()).String())
}

// Validate checks if the CompanyID is valid
func (id CompanyID) Validate() error {
	if id == "" {
		return goerr.New("company ID cannot be empty")
	}
	return nil
}

func (id CompanyID) String() string {
	return string(id)
}

// TicketID identifies a ticket across all tenants. The ULID part sorts
// lexically in creation order.
type TicketID string

// NewTicketID generates a globally unique, monotonically increasing ticket identifier
func NewTicketID() TicketID {
	return TicketID(ticketIDPrefix + ulid.Make().String())
}

// Validate checks if the TicketID is valid
func (id TicketID) Validate() error {
	if id == "" {
		return goerr.New("ticket ID cannot be empty")
	}
	if !strings.HasPrefix(string(id), ticketIDPrefix) {
		return goerr.New("ticket ID must start with "+ticketIDPrefix, goerr.V("id", id))
	}
	return nil
}

func (id TicketID) String() string {
	return string(id)
}

// SessionID identifies one conversation session of a tenant
type SessionID string

// NewSessionID generates a new SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.Must(uuid.NewV7()).String())
}

// Validate checks if the SessionID is valid
func (id SessionID) Validate() error {
	if id == "" {
		return goerr.New("session ID cannot be empty")
	}
	return nil
}

func (id SessionID) String() string {
	return string(id)
}

// APIKey is the opaque credential a tenant logs in with
type APIKey string

// NewAPIKey generates a fresh API key from crypto/rand
func NewAPIKey() (APIKey, error) {
	buf := make([]byte, apiKeyEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", goerr.Wrap(err, "failed to generate API key")
	}
	return APIKey(apiKeyPrefix + hex.EncodeToString(buf)), nil
}

// Validate checks if the APIKey is non-empty
func (k APIKey) Validate() error {
	if k == "" {
		return goerr.New("API key cannot be empty")
	}
	return nil
}

func (k APIKey) String() string {
	return string(k)
}
