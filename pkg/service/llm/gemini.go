package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
)

// Gemini completes conversations through a gollem LLM client. Each call opens
// a fresh session and sends the history as one transcript.
type Gemini struct {
	client gollem.LLMClient
}

var _ interfaces.Completer = &Gemini{}

// NewGemini wraps an LLM client, typically gollem's Gemini client
func NewGemini(client gollem.LLMClient) (*Gemini, error) {
	if client == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Complete(ctx context.Context, systemPrompt string, turns []model.Turn) (string, error) {
	if len(turns) == 0 {
		return "", goerr.New("no turn to complete")
	}

	var options []gollem.SessionOption
	if systemPrompt != "" {
		options = append(options, gollem.WithSessionSystemPrompt(systemPrompt))
	}

	session, err := g.client.NewSession(ctx, options...)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(renderTranscript(turns)))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content from LLM", goerr.V("turns", len(turns)))
	}
	if resp == nil || len(resp.Texts) == 0 {
		return "", goerr.New("LLM returned no text", goerr.V("turns", len(turns)))
	}

	return strings.Join(resp.Texts, "\n"), nil
}

// renderTranscript labels each turn with its speaker and asks for the next
// assistant message
func renderTranscript(turns []model.Turn) string {
	var sb strings.Builder

	sb.WriteString("Conversation so far:\n\n")
	for _, turn := range turns {
		fmt.Fprintf(&sb, "%s: %s\n\n", speaker(turn.Role), turn.Content)
	}
	sb.WriteString("Write the next Assistant message only, without the speaker label.")

	return sb.String()
}

func speaker(role types.Role) string {
	switch role {
	case types.RoleUser:
		return "User"
	case types.RoleAssistant:
		return "Assistant"
	default:
		return string(role)
	}
}
