package slack

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
	"github.com/slack-go/slack"
)

// poster is the part of *slack.Client the notifier uses
type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Notifier posts ticket lifecycle messages to a Slack channel
type Notifier struct {
	api       poster
	channelID string
	baseURL   string
}

var _ interfaces.TicketNotifier = &Notifier{}

// Option is a functional option for Notifier configuration
type Option func(*Notifier)

// WithBaseURL sets the frontend URL linked from messages
func WithBaseURL(url string) Option {
	return func(n *Notifier) {
		n.baseURL = url
	}
}

// New creates a Slack notifier with the provided bot token and channel
func New(token, channelID string, opts ...Option) (*Notifier, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	return newNotifier(slack.New(token), channelID, opts...)
}

func newNotifier(api poster, channelID string, opts ...Option) (*Notifier, error) {
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	n := &Notifier{
		api:       api,
		channelID: channelID,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// NotifyRegistered posts one message summarising a batch of new tickets
func (n *Notifier) NotifyRegistered(ctx context.Context, tickets []*model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	blocks := buildRegisteredBlocks(tickets, n.baseURL)
	text := registeredFallbackText(tickets)
	return n.post(ctx, blocks, text, goerr.V("company_id", tickets[0].CompanyID))
}

// NotifyCompleted posts a message for a completed ticket
func (n *Notifier) NotifyCompleted(ctx context.Context, ticket *model.Ticket) error {
	blocks := buildCompletedBlocks(ticket)
	text := "Ticket completed: " + ticket.Title
	return n.post(ctx, blocks, text, goerr.V("ticket_id", ticket.ID))
}

func (n *Notifier) post(ctx context.Context, blocks []slack.Block, text string, values ...goerr.Option) error {
	_, ts, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post Slack message", append(values, goerr.V("channel_id", n.channelID))...)
	}

	logging.From(ctx).Debug("posted Slack message", "channel_id", n.channelID, "ts", ts)
	return nil
}
