package worker

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
	"github.com/secmon-lab/cottus/pkg/utils/metrics"
)

// DefaultStatsInterval is how often backlog gauges are recomputed
const DefaultStatsInterval = time.Minute

// TicketStats is one snapshot of the ticket backlog
type TicketStats struct {
	Companies        int
	Pending          int
	Completed        int
	OldestPendingAge time.Duration
	RefreshedAt      time.Time
}

// TicketStatsWorker periodically recomputes backlog gauges from the repository.
//
// Every instance reports the full backlog, so with several replicas the
// gauges should be aggregated with max rather than sum.
type TicketStatsWorker struct {
	repo     interfaces.Repository
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}

	mu   sync.RWMutex
	last TicketStats
}

// NewTicketStatsWorker creates a worker refreshing stats every interval
func NewTicketStatsWorker(repo interfaces.Repository, interval time.Duration) *TicketStatsWorker {
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	return &TicketStatsWorker{
		repo:     repo,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background refresh loop without blocking server startup
func (w *TicketStatsWorker) Start(ctx context.Context) error {
	logging.Default().Info("Ticket stats worker starting", "interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *TicketStatsWorker) Stop() {
	logging.Default().Info("Ticket stats worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Ticket stats worker stopped")
}

// Last returns the most recent snapshot. RefreshedAt is zero before the first
// successful refresh.
func (w *TicketStatsWorker) Last() TicketStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last
}

func (w *TicketStatsWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.refresh(ctx); err != nil {
		logging.Default().Error("Initial ticket stats refresh failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.refresh(ctx); err != nil {
				logging.Default().Error("Ticket stats refresh failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Ticket stats worker context cancelled")
			return
		}
	}
}

// refresh performs a single refresh cycle. Gauges keep their previous values
// when the repository cannot be read.
func (w *TicketStatsWorker) refresh(ctx context.Context) error {
	now := w.now()

	companies, err := w.repo.Company().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list companies")
	}
	tickets, err := w.repo.Ticket().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list tickets")
	}

	stats := TicketStats{
		Companies:   len(companies),
		RefreshedAt: now,
	}
	var oldest time.Time
	for _, ticket := range tickets {
		if ticket.Status == types.TicketStatusCompleted {
			stats.Completed++
			continue
		}
		stats.Pending++
		if oldest.IsZero() || ticket.CreatedAt.Before(oldest) {
			oldest = ticket.CreatedAt
		}
	}
	if !oldest.IsZero() {
		stats.OldestPendingAge = now.Sub(oldest)
	}

	metrics.CompaniesTotal.Set(float64(stats.Companies))
	metrics.TicketsByStatus.WithLabelValues(string(types.TicketStatusPending)).Set(float64(stats.Pending))
	metrics.TicketsByStatus.WithLabelValues(string(types.TicketStatusCompleted)).Set(float64(stats.Completed))
	metrics.OldestPendingTicketAge.Set(stats.OldestPendingAge.Seconds())

	w.mu.Lock()
	w.last = stats
	w.mu.Unlock()

	logging.Default().Debug("Ticket stats refreshed",
		"companies", stats.Companies,
		"pending", stats.Pending,
		"completed", stats.Completed)

	return nil
}
