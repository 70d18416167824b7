package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds configuration for ticket notifications to a Slack channel
type Slack struct {
	botToken  string
	channelID string
	baseURL   string
}

// Flags returns CLI flags for Slack configuration
func (s *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (xoxb-...)",
			Category:    "Slack",
			Sources:     cli.EnvVars("COTTUS_SLACK_BOT_TOKEN"),
			Destination: &s.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID that receives ticket notifications",
			Category:    "Slack",
			Sources:     cli.EnvVars("COTTUS_SLACK_CHANNEL_ID"),
			Destination: &s.channelID,
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Base URL of this service, used for links in notifications (e.g. https://your-domain.com)",
			Sources:     cli.EnvVars("COTTUS_BASE_URL"),
			Destination: &s.baseURL,
		},
	}
}

// LogAttrs returns log attributes for the Slack configuration (secrets hidden)
func (s *Slack) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("channel_id", s.channelID),
		slog.String("base_url", s.baseURL),
		slog.Bool("bot_token_set", s.botToken != ""),
	}
}

// IsConfigured returns true if the bot token and channel are both set
func (s *Slack) IsConfigured() bool {
	return s.botToken != "" && s.channelID != ""
}

// Configure creates the Slack notifier. Returns nil when Slack is not configured.
func (s *Slack) Configure() (*slack.Notifier, error) {
	if !s.IsConfigured() {
		return nil, nil
	}

	var opts []slack.Option
	if s.baseURL != "" {
		opts = append(opts, slack.WithBaseURL(s.baseURL))
	}

	notifier, err := slack.New(s.botToken, s.channelID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Slack notifier")
	}
	return notifier, nil
}
