package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/service/llm"
	"github.com/urfave/cli/v3"
)

// Claude holds configuration for the Anthropic completion service
type Claude struct {
	apiKey    string
	model     string
	maxTokens int
}

// Flags returns CLI flags for Claude configuration
func (c *Claude) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("COTTUS_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"),
			Destination: &c.apiKey,
		},
		&cli.StringFlag{
			Name:        "claude-model",
			Usage:       "Claude model name",
			Category:    "LLM",
			Value:       llm.DefaultClaudeModel,
			Sources:     cli.EnvVars("COTTUS_CLAUDE_MODEL"),
			Destination: &c.model,
		},
		&cli.IntFlag{
			Name:        "claude-max-tokens",
			Usage:       "Maximum tokens of a single reply",
			Category:    "LLM",
			Value:       llm.DefaultClaudeMaxTokens,
			Sources:     cli.EnvVars("COTTUS_CLAUDE_MAX_TOKENS"),
			Destination: &c.maxTokens,
		},
	}
}

// LogAttrs returns log attributes for the Claude configuration (API key hidden)
func (c *Claude) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("model", c.model),
		slog.Int("max_tokens", c.maxTokens),
		slog.Bool("api_key_set", c.apiKey != ""),
	}
}

// Configure creates a Claude completer from the configured flags
func (c *Claude) Configure() (*llm.Claude, error) {
	if c.apiKey == "" {
		return nil, goerr.Wrap(ErrMissingValue, "anthropic-api-key is required for the claude provider",
			goerr.V(FieldKey, "anthropic-api-key"))
	}

	var opts []llm.ClaudeOption
	if c.model != "" {
		opts = append(opts, llm.WithClaudeModel(c.model))
	}
	if c.maxTokens != 0 {
		opts = append(opts, llm.WithClaudeMaxTokens(int64(c.maxTokens)))
	}

	completer, err := llm.NewClaude(c.apiKey, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Claude client")
	}
	return completer, nil
}
