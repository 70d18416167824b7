package slack

import (
	"context"

	"github.com/slack-go/slack"
)

// Export internal functions for testing
var (
	BuildRegisteredBlocks = buildRegisteredBlocks
	BuildCompletedBlocks  = buildCompletedBlocks
	Truncate              = truncate
)

// PostFunc replaces the Slack API in tests
type PostFunc func(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)

func (f PostFunc) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	return f(ctx, channelID, options...)
}

// NewWithPoster creates a notifier backed by a test poster
func NewWithPoster(p PostFunc, channelID string, opts ...Option) (*Notifier, error) {
	return newNotifier(p, channelID, opts...)
}
