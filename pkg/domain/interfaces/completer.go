package interfaces

import (
	"context"

	"github.com/secmon-lab/cottus/pkg/domain/model"
)

// Completer generates the next assistant reply for a conversation. Only the
// role and content of each turn are sent.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, turns []model.Turn) (string, error)
}
