package worker

import (
	"context"
	"time"
)

func (w *TicketStatsWorker) SetClock(now func() time.Time) {
	w.now = now
}

func (w *TicketStatsWorker) Refresh(ctx context.Context) error {
	return w.refresh(ctx)
}
