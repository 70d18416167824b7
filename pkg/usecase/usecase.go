package usecase

import (
	"time"

	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/model/config"
)

// DefaultCompletionTimeout bounds a single completion service call
const DefaultCompletionTimeout = 2 * time.Minute

type UseCases struct {
	repo              interfaces.Repository
	completer         interfaces.Completer
	notifiers         []interfaces.TicketNotifier
	archiver          interfaces.ExportArchiver
	persona           *config.Persona
	completionTimeout time.Duration
	now               func() time.Time

	Company      *CompanyUseCase
	Ticket       *TicketUseCase
	Conversation *ConversationUseCase
	Export       *ExportUseCase
	Auth         *AuthUseCase
}

type Option func(*UseCases)

// WithCompleter sets the completion service used for assistant replies
func WithCompleter(completer interfaces.Completer) Option {
	return func(uc *UseCases) {
		uc.completer = completer
	}
}

// WithTicketNotifier adds a notifier for ticket lifecycle events
func WithTicketNotifier(notifier interfaces.TicketNotifier) Option {
	return func(uc *UseCases) {
		uc.notifiers = append(uc.notifiers, notifier)
	}
}

// WithExportArchiver enables archiving of export documents
func WithExportArchiver(archiver interfaces.ExportArchiver) Option {
	return func(uc *UseCases) {
		uc.archiver = archiver
	}
}

// WithPersona sets the assistant persona. Empty fields fall back to defaults.
func WithPersona(persona *config.Persona) Option {
	return func(uc *UseCases) {
		uc.persona = persona
	}
}

// WithCompletionTimeout overrides DefaultCompletionTimeout
func WithCompletionTimeout(timeout time.Duration) Option {
	return func(uc *UseCases) {
		uc.completionTimeout = timeout
	}
}

// WithClock replaces time.Now for timestamps
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, opts ...Option) (*UseCases, error) {
	uc := &UseCases{
		repo:              repo,
		completionTimeout: DefaultCompletionTimeout,
		now:               func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	persona := uc.persona.WithDefaults()

	uc.Company = NewCompanyUseCase(repo, uc.now)
	uc.Ticket = NewTicketUseCase(repo, uc.notifiers, uc.now)

	conversation, err := NewConversationUseCase(repo, uc.completer, uc.Ticket, persona, uc.completionTimeout, uc.now)
	if err != nil {
		return nil, err
	}
	uc.Conversation = conversation

	uc.Export = NewExportUseCase(repo, uc.archiver, persona.ExportPrefix, uc.now)
	uc.Auth = NewAuthUseCase(repo, uc.Company, uc.Conversation, uc.now)

	return uc, nil
}
