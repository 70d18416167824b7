package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"github.com/secmon-lab/cottus/pkg/service/github"
)

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// fakeGitHub answers the GraphQL operations the notifier sends
type fakeGitHub struct {
	mu         sync.Mutex
	requests   []graphqlRequest
	searchHits []map[string]any
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	number := len(f.requests)
	f.mu.Unlock()

	var data map[string]any
	switch {
	case strings.Contains(req.Query, "repository("):
		data = map[string]any{"repository": map[string]any{"id": "R_kgDOTest"}}
	case strings.Contains(req.Query, "createIssue("):
		data = map[string]any{"createIssue": map[string]any{"issue": map[string]any{
			"number": number,
			"url":    "https://github.com/acme/tickets/issues/1",
		}}}
	case strings.Contains(req.Query, "search("):
		edges := []any{}
		for _, hit := range f.searchHits {
			edges = append(edges, map[string]any{"node": hit})
		}
		data = map[string]any{"search": map[string]any{"edges": edges}}
	case strings.Contains(req.Query, "addComment("):
		data = map[string]any{"addComment": map[string]any{"clientMutationId": ""}}
	case strings.Contains(req.Query, "closeIssue("):
		data = map[string]any{"closeIssue": map[string]any{"clientMutationId": ""}}
	default:
		http.Error(w, "unexpected query", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func (f *fakeGitHub) queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.Query
	}
	return out
}

func newTicket(title string) *model.Ticket {
	return model.NewTicket("COMP-test", "Acme", model.Draft{
		Title:              title,
		Description:        "Users can log in",
		AcceptanceCriteria: []string{"Valid credentials succeed"},
		TechnicalNotes:     "Use existing auth lib",
		EstimatedHours:     6,
		Priority:           types.PriorityHigh,
		Dependencies:       []string{},
	}, time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC))
}

func TestNew(t *testing.T) {
	_, err := github.NewWithEndpoint("http://localhost", "", "tickets")
	gt.Value(t, err).NotNil()
}

func TestNotifier_NotifyRegistered(t *testing.T) {
	fake := &fakeGitHub{}
	server := httptest.NewServer(fake)
	defer server.Close()

	n, err := github.NewWithEndpoint(server.URL, "acme", "tickets")
	gt.NoError(t, err).Required()

	ctx := context.Background()
	gt.NoError(t, n.NotifyRegistered(ctx, []*model.Ticket{newTicket("A"), newTicket("B")})).Required()
	gt.NoError(t, n.NotifyRegistered(ctx, []*model.Ticket{newTicket("C")})).Required()

	queries := fake.queries()
	// repository id is looked up once
	gt.Array(t, queries).Length(4).Required()
	gt.String(t, queries[0]).Contains("repository(")
	for _, q := range queries[1:] {
		gt.String(t, q).Contains("createIssue(")
	}

	input := fake.requests[1].Variables["input"].(map[string]any)
	gt.Value(t, input["repositoryId"]).Equal("R_kgDOTest")
	gt.String(t, input["title"].(string)).Contains("] A")
}

func TestNotifier_NotifyCompleted(t *testing.T) {
	ticket := newTicket("Add login")
	at := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	ticket.CompletedAt = &at

	t.Run("closes the matching issue", func(t *testing.T) {
		fake := &fakeGitHub{searchHits: []map[string]any{
			{"id": "I_other", "number": 3, "title": "[TICKET-OTHER] Add login"},
			{"id": "I_match", "number": 7, "title": github.IssueTitle(ticket)},
		}}
		server := httptest.NewServer(fake)
		defer server.Close()

		n, err := github.NewWithEndpoint(server.URL, "acme", "tickets")
		gt.NoError(t, err).Required()
		gt.NoError(t, n.NotifyCompleted(context.Background(), ticket)).Required()

		queries := fake.queries()
		gt.Array(t, queries).Length(3).Required()
		gt.String(t, queries[0]).Contains("search(")
		gt.String(t, queries[1]).Contains("addComment(")
		gt.String(t, queries[2]).Contains("closeIssue(")

		closeInput := fake.requests[2].Variables["input"].(map[string]any)
		gt.Value(t, closeInput["issueId"]).Equal("I_match")
	})

	t.Run("no issue is not an error", func(t *testing.T) {
		fake := &fakeGitHub{}
		server := httptest.NewServer(fake)
		defer server.Close()

		n, err := github.NewWithEndpoint(server.URL, "acme", "tickets")
		gt.NoError(t, err).Required()
		gt.NoError(t, n.NotifyCompleted(context.Background(), ticket)).Required()
		gt.Array(t, fake.queries()).Length(1)
	})
}

func TestIssueBody(t *testing.T) {
	body := github.IssueBody(newTicket("Add login"))
	gt.String(t, body).Contains("**Company:** Acme")
	gt.String(t, body).Contains("- [ ] Valid credentials succeed")
	gt.String(t, body).Contains("## Technical notes")
	gt.Bool(t, strings.Contains(body, "## Dependencies")).False()
}
