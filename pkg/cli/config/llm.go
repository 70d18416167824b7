package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// LLM selects the completion service used for assistant replies
type LLM struct {
	provider string
	Claude   Claude
	Gemini   Gemini
}

// Flags returns CLI flags for the completion service
func (l *LLM) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "Completion service (claude, gemini or none)",
			Category:    "LLM",
			Value:       ProviderClaude,
			Sources:     cli.EnvVars("COTTUS_LLM_PROVIDER"),
			Destination: &l.provider,
		},
	}
	flags = append(flags, l.Claude.Flags()...)
	flags = append(flags, l.Gemini.Flags()...)
	return flags
}

// LogAttrs returns log attributes for the selected provider
func (l *LLM) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("provider", l.provider)}
	switch l.provider {
	case ProviderClaude:
		attrs = append(attrs, slog.Any("claude", slog.GroupValue(l.Claude.LogAttrs()...)))
	case ProviderGemini:
		attrs = append(attrs, slog.Any("gemini", slog.GroupValue(l.Gemini.LogAttrs()...)))
	}
	return attrs
}

// Configure returns the completer for the selected provider. The none
// provider returns nil, which makes every reply fail with the apology turn.
func (l *LLM) Configure(ctx context.Context) (interfaces.Completer, error) {
	switch l.provider {
	case ProviderClaude:
		completer, err := l.Claude.Configure()
		if err != nil {
			return nil, err
		}
		return completer, nil
	case ProviderGemini:
		completer, err := l.Gemini.Configure(ctx)
		if err != nil {
			return nil, err
		}
		return completer, nil
	case ProviderNone:
		logging.Default().Warn("No completion service configured, assistant replies will fail")
		return nil, nil
	default:
		return nil, goerr.Wrap(ErrInvalidProvider, "unknown provider", goerr.V(ProviderKey, l.provider))
	}
}
