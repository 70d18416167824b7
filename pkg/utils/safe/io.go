package safe

import (
	"context"
	"io"

	"github.com/secmon-lab/cottus/pkg/utils/logging"
)

// Close closes closer and logs a failure under the given name. A nil closer
// is ignored.
func Close(ctx context.Context, closer io.Closer, name string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("failed to close", "target", name, "error", err.Error())
	}
}

// Write writes data to w and logs a failure or short write. Used after the
// response status is committed, when the error can no longer be returned.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	n, err := w.Write(data)
	if err != nil {
		logging.From(ctx).Error("failed to write", "error", err.Error(), "written", n, "size", len(data))
	}
}
