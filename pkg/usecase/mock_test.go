package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"github.com/secmon-lab/cottus/pkg/utils/async"
)

type mockCompleter struct {
	CompleteFunc func(ctx context.Context, systemPrompt string, turns []model.Turn) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, systemPrompt string, turns []model.Turn) (string, error) {
	return m.CompleteFunc(ctx, systemPrompt, turns)
}

func replyWith(text string) *mockCompleter {
	return &mockCompleter{
		CompleteFunc: func(ctx context.Context, systemPrompt string, turns []model.Turn) (string, error) {
			return text, nil
		},
	}
}

type mockNotifier struct {
	mu         sync.Mutex
	registered [][]*model.Ticket
	completed  []*model.Ticket
}

var _ interfaces.TicketNotifier = &mockNotifier{}

func (m *mockNotifier) NotifyRegistered(ctx context.Context, tickets []*model.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered = append(m.registered, tickets)
	return nil
}

func (m *mockNotifier) NotifyCompleted(ctx context.Context, ticket *model.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, ticket)
	return nil
}

type mockArchiver struct {
	paths []string
	data  [][]byte
}

func (m *mockArchiver) Put(ctx context.Context, path string, data []byte) (string, error) {
	m.paths = append(m.paths, path)
	m.data = append(m.data, data)
	return "gs://test-bucket/" + path, nil
}

// fakeClock hands out a controllable time
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// waitAsync blocks until dispatched notifications have finished
func waitAsync(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	gt.NoError(t, async.Wait(ctx)).Required()
}

func sampleDraft(title string) model.Draft {
	return model.Draft{
		Title:              title,
		Description:        title + " description",
		AcceptanceCriteria: []string{"works"},
		EstimatedHours:     4,
		Priority:           types.PriorityHigh,
		Dependencies:       []string{},
	}
}

const fence = "```"

const addLoginReply = "Thanks, here is the ticket.\n\n" + fence + "json\n" +
	`{"tickets":[{"title":"Add login","description":"Users can log in","acceptance_criteria":["Valid credentials succeed","Invalid credentials fail"],"technical_notes":"Use existing auth lib","estimated_hours":6,"priority":"high","dependencies":[]}]}` +
	"\n" + fence
