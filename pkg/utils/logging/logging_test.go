package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
)

func TestFrom(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Info("hello", "company_id", "COMP-1")

	gt.String(t, buf.String()).Contains("hello")
	gt.String(t, buf.String()).Contains("COMP-1")
}

func TestFromFallsBackToDefault(t *testing.T) {
	var buf bytes.Buffer
	orig := logging.Default()
	t.Cleanup(func() { logging.SetDefault(orig) })

	logging.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	logging.From(context.Background()).Info("fallback")

	gt.String(t, buf.String()).Contains("fallback")
}
