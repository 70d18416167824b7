package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/service/llm"
)

type messagesRequest struct {
	Model     string `json:"model"`
	MaxTokens int64  `json:"max_tokens"`
	System    []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func newClaudeServer(t *testing.T, status int, response string, got *messagesRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Path).Equal("/v1/messages")
		gt.Value(t, r.Header.Get("X-Api-Key")).Equal("test-key")
		if got != nil {
			gt.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClaude(t *testing.T, server *httptest.Server, opts ...llm.ClaudeOption) *llm.Claude {
	t.Helper()
	opts = append(opts, llm.WithClaudeRequestOptions(
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	))
	c, err := llm.NewClaude("test-key", opts...)
	gt.NoError(t, err).Required()
	return c
}

const claudeReply = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-20250514",
  "content": [
    {"type": "text", "text": "Thanks."},
    {"type": "text", "text": "Here is the ticket."}
  ],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 10, "output_tokens": 5}
}`

func TestNewClaude(t *testing.T) {
	_, err := llm.NewClaude("")
	gt.Value(t, err).NotNil()

	_, err = llm.NewClaude("key", llm.WithClaudeMaxTokens(0))
	gt.Value(t, err).NotNil()
}

func TestClaude_Complete(t *testing.T) {
	t.Run("sends history and joins text blocks", func(t *testing.T) {
		var got messagesRequest
		server := newClaudeServer(t, http.StatusOK, claudeReply, &got)
		c := newTestClaude(t, server, llm.WithClaudeMaxTokens(1234))

		reply, err := c.Complete(context.Background(), "You are a PM.", []model.Turn{
			model.AssistantTurn("Hello, how can I help?"),
			model.UserTurn("We need a login page"),
			model.AssistantTurn("What kind of login?"),
			model.UserTurn("Email and password"),
		})
		gt.NoError(t, err).Required()
		gt.Value(t, reply).Equal("Thanks.\nHere is the ticket.")

		gt.Value(t, got.Model).Equal(llm.DefaultClaudeModel)
		gt.Value(t, got.MaxTokens).Equal(int64(1234))
		gt.Array(t, got.System).Length(1).Required()
		gt.Value(t, got.System[0].Text).Equal("You are a PM.")

		gt.Array(t, got.Messages).Length(3).Required()
		gt.Value(t, got.Messages[0].Role).Equal("user")
		gt.Value(t, got.Messages[0].Content[0].Text).Equal("We need a login page")
		gt.Value(t, got.Messages[1].Role).Equal("assistant")
		gt.Value(t, got.Messages[2].Content[0].Text).Equal("Email and password")
	})

	t.Run("error status fails", func(t *testing.T) {
		server := newClaudeServer(t, http.StatusBadRequest,
			`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`, nil)
		c := newTestClaude(t, server)

		_, err := c.Complete(context.Background(), "", []model.Turn{model.UserTurn("hi")})
		gt.Error(t, err)
	})

	t.Run("reply without text fails", func(t *testing.T) {
		server := newClaudeServer(t, http.StatusOK,
			`{"id":"msg_02","type":"message","role":"assistant","model":"m","content":[],"stop_reason":"max_tokens","usage":{"input_tokens":1,"output_tokens":0}}`, nil)
		c := newTestClaude(t, server)

		_, err := c.Complete(context.Background(), "", []model.Turn{model.UserTurn("hi")})
		gt.Error(t, err)
	})

	t.Run("history without user turn fails", func(t *testing.T) {
		c, err := llm.NewClaude("test-key")
		gt.NoError(t, err).Required()
		_, err = c.Complete(context.Background(), "", []model.Turn{model.AssistantTurn("Hello")})
		gt.Error(t, err)
	})
}

func TestClaudeMessages(t *testing.T) {
	msgs := llm.ClaudeMessages([]model.Turn{
		model.AssistantTurn("greeting"),
		model.AssistantTurn("second greeting"),
		model.UserTurn("hi"),
	})
	gt.Array(t, msgs).Length(1)
}

func TestClaudeIntegration(t *testing.T) {
	apiKey := os.Getenv("TEST_ANTHROPIC_API_KEY")
	if apiKey == "" {
		t.Skip("TEST_ANTHROPIC_API_KEY is not set")
	}

	c, err := llm.NewClaude(apiKey, llm.WithClaudeMaxTokens(64))
	gt.NoError(t, err).Required()
	reply, err := c.Complete(context.Background(), "Answer in one word.", []model.Turn{model.UserTurn("Say hello")})
	gt.NoError(t, err).Required()
	gt.Value(t, reply).NotEqual("")
}
