package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
)

const (
	DefaultClaudeModel     = "claude-sonnet-4-20250514"
	DefaultClaudeMaxTokens = 4000
)

// Claude completes conversations with the Anthropic Messages API
type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

var _ interfaces.Completer = &Claude{}

type ClaudeOption func(*claudeConfig)

type claudeConfig struct {
	model     string
	maxTokens int64
	options   []option.RequestOption
}

// WithClaudeModel overrides DefaultClaudeModel
func WithClaudeModel(model string) ClaudeOption {
	return func(c *claudeConfig) {
		c.model = model
	}
}

// WithClaudeMaxTokens overrides DefaultClaudeMaxTokens
func WithClaudeMaxTokens(n int64) ClaudeOption {
	return func(c *claudeConfig) {
		c.maxTokens = n
	}
}

// WithClaudeRequestOptions passes options through to the SDK client
func WithClaudeRequestOptions(opts ...option.RequestOption) ClaudeOption {
	return func(c *claudeConfig) {
		c.options = append(c.options, opts...)
	}
}

// NewClaude creates a Claude completer with the given API key
func NewClaude(apiKey string, opts ...ClaudeOption) (*Claude, error) {
	if apiKey == "" {
		return nil, goerr.New("Anthropic API key is required")
	}

	cfg := &claudeConfig{
		model:     DefaultClaudeModel,
		maxTokens: DefaultClaudeMaxTokens,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.maxTokens <= 0 {
		return nil, goerr.New("max tokens must be positive", goerr.V("max_tokens", cfg.maxTokens))
	}

	requestOptions := append([]option.RequestOption{option.WithAPIKey(apiKey)}, cfg.options...)
	return &Claude{
		client:    anthropic.NewClient(requestOptions...),
		model:     cfg.model,
		maxTokens: cfg.maxTokens,
	}, nil
}

// Complete sends the whole history and returns the text of the reply
func (c *Claude) Complete(ctx context.Context, systemPrompt string, turns []model.Turn) (string, error) {
	messages := claudeMessages(turns)
	if len(messages) == 0 {
		return "", goerr.New("no user turn to complete", goerr.V("turns", len(turns)))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  messages,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", goerr.Wrap(err, "failed to call Messages API", goerr.V("model", c.model))
	}

	var texts []string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			texts = append(texts, block.Text)
		}
	}
	if len(texts) == 0 {
		return "", goerr.New("reply has no text content",
			goerr.V("model", c.model), goerr.V("stop_reason", string(msg.StopReason)))
	}

	logging.From(ctx).Debug("Claude reply received",
		"model", c.model,
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens,
	)
	return strings.Join(texts, "\n"), nil
}

// claudeMessages converts turns to API messages. The API requires the first
// message to be from the user, so leading assistant turns are dropped.
func claudeMessages(turns []model.Turn) []anthropic.MessageParam {
	start := 0
	for start < len(turns) && turns[start].Role != types.RoleUser {
		start++
	}

	messages := make([]anthropic.MessageParam, 0, len(turns)-start)
	for _, turn := range turns[start:] {
		block := anthropic.NewTextBlock(turn.Content)
		switch turn.Role {
		case types.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(block))
		case types.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(block))
		}
	}
	return messages
}
