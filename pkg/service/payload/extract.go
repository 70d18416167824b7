package payload

import (
	"context"
	"strings"

	"github.com/secmon-lab/cottus/pkg/domain/model"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
	"github.com/secmon-lab/cottus/pkg/utils/metrics"
)

// Extract returns the ticket drafts declared in an assistant reply. It never
// fails: a reply without a block and a reply with a malformed block both
// yield no drafts.
func Extract(ctx context.Context, content string) []model.Draft {
	logger := logging.From(ctx)

	block, ok := Locate(content)
	if !ok {
		metrics.PayloadOutcomes.WithLabelValues("absent").Inc()
		return nil
	}

	drafts, rejected, err := Parse(block.Raw)
	if err != nil {
		metrics.PayloadOutcomes.WithLabelValues("malformed").Inc()
		logger.Warn("ignoring malformed ticket payload", "error", err, "raw_length", len(block.Raw))
		return nil
	}

	metrics.PayloadOutcomes.WithLabelValues("parsed").Inc()
	for _, r := range rejected {
		metrics.DraftsQuarantined.Inc()
		logger.Warn("ticket draft quarantined", "index", r.Index, "error", r.Err)
	}
	logger.Debug("ticket payload parsed", "drafts", len(drafts), "quarantined", len(rejected))

	return drafts
}

// Strip removes every json block from content and trims the surrounding
// blank space, leaving the prose shown to the client.
func Strip(content string) string {
	for {
		block, ok := Locate(content)
		if !ok {
			return strings.TrimSpace(content)
		}
		content = joinProse(content[:block.Start], content[block.End:])
	}
}

// joinProse glues the text around a removed block with one blank line
func joinProse(before, after string) string {
	before = strings.TrimRight(before, " \t\r\n")
	after = strings.TrimSpace(after)

	switch {
	case before == "":
		return after
	case after == "":
		return before
	default:
		return before + "\n\n" + after
	}
}
