package events

import "github.com/atomicstack/assetdesk/internal/logging"

type LedgerTracer struct{}

type PollTracer struct{}

var (
	Ledger = LedgerTracer{}
	Poll   = PollTracer{}
)

func (LedgerTracer) Mark(target, level, stored string) {
	logging.Trace("ledger.mark", map[string]interface{}{"target": target, "level": level, "stored": stored})
}

func (LedgerTracer) Consume(target, level string) {
	logging.Trace("ledger.consume", map[string]interface{}{"target": target, "level": level})
}

func (LedgerTracer) Restore(target, level string, err error) {
	payload := map[string]interface{}{"target": target, "level": level}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("ledger.restore", payload)
}

func (PollTracer) Refresh(pending, transfers int) {
	logging.Trace("poll.refresh", map[string]interface{}{"pending": pending, "transfers": transfers})
}

func (PollTracer) AccessorError(counter string, err error) {
	logging.Warn("poller", "counter accessor failed", map[string]interface{}{"counter": counter, "error": err.Error()})
}
