package async

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/utils/errutil"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
)

var (
	inflight sync.WaitGroup

	// mu orders inflight.Add against inflight.Wait. While a drain is in
	// progress, new handlers run on the caller's goroutine instead.
	mu       sync.Mutex
	draining chan struct{}
)

// Dispatch executes a handler function asynchronously in a new goroutine.
// The handler gets a background context carrying the caller's logger, so it
// outlives the request. Errors and panics are logged and reported.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.Background(), logging.From(ctx))

	mu.Lock()
	if draining != nil {
		mu.Unlock()
		run(bgCtx, handler)
		return
	}
	inflight.Add(1)
	mu.Unlock()

	go func() {
		defer inflight.Done()
		run(bgCtx, handler)
	}()
}

func run(ctx context.Context, handler func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			errutil.Handle(ctx, goerr.New("panic in async handler", goerr.V("panic", r)), "async handler panicked")
		}
	}()

	if err := handler(ctx); err != nil {
		errutil.Handle(ctx, err, "async handler failed")
	}
}

// Wait blocks until every dispatched handler has returned or ctx is done.
// Handlers dispatched until the drain completes run synchronously.
func Wait(ctx context.Context) error {
	mu.Lock()
	done := draining
	if done == nil {
		done = make(chan struct{})
		draining = done
		go func() {
			inflight.Wait()
			mu.Lock()
			draining = nil
			mu.Unlock()
			close(done)
		}()
	}
	mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "async handlers still running")
	}
}
