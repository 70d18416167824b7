package interfaces

import (
	"context"

	"github.com/secmon-lab/cottus/pkg/domain/model"
)

// TicketNotifier hands ticket lifecycle events to engineers. Implementations
// are called off the request path and their errors are only logged.
type TicketNotifier interface {
	NotifyRegistered(ctx context.Context, tickets []*model.Ticket) error
	NotifyCompleted(ctx context.Context, ticket *model.Ticket) error
}
