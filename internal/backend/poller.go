package backend

import (
	"fmt"
	"time"

	"github.com/atomicstack/assetdesk/internal/logging/events"
)

// DefaultPollInterval is the minimum spacing between counter refreshes.
const DefaultPollInterval = 5 * time.Second

// Accessor computes one counter. It may be expensive.
type Accessor func() (int, error)

// Counters is the snapshot published by the poller. A counter whose accessor
// failed keeps its previous value and records the error.
type Counters struct {
	PendingUpdates  int
	ActiveTransfers int
	PendingErr      error
	TransfersErr    error
	PolledAt        time.Time
	Polls           int
}

// Poller gates periodic counter checks to at most once per interval,
// regardless of how often MaybePoll is called.
type Poller struct {
	interval  time.Duration
	pending   Accessor
	transfers Accessor

	polled bool
	last   time.Time
	snap   Counters
}

// NewPoller builds a poller. A non-positive interval falls back to
// DefaultPollInterval. Nil accessors leave their counter at zero.
func NewPoller(interval time.Duration, pending, transfers Accessor) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{interval: interval, pending: pending, transfers: transfers}
}

// Interval returns the configured spacing.
func (p *Poller) Interval() time.Duration {
	if p == nil {
		return 0
	}
	return p.interval
}

// MaybePoll recomputes the counters when the interval has elapsed since the
// last refresh (or on the first call) and reports whether it did. Otherwise it
// returns the previous snapshot untouched.
func (p *Poller) MaybePoll(now time.Time) (Counters, bool) {
	if p == nil {
		return Counters{}, false
	}
	if p.polled && now.Sub(p.last) < p.interval {
		return p.snap, false
	}
	p.polled = true
	p.last = now

	next := p.snap
	next.PolledAt = now
	next.Polls++
	if v, err := call(p.pending); err != nil {
		next.PendingErr = err
		events.Poll.AccessorError("pending-updates", err)
	} else {
		next.PendingUpdates, next.PendingErr = v, nil
	}
	if v, err := call(p.transfers); err != nil {
		next.TransfersErr = err
		events.Poll.AccessorError("active-transfers", err)
	} else {
		next.ActiveTransfers, next.TransfersErr = v, nil
	}
	p.snap = next
	events.Poll.Refresh(next.PendingUpdates, next.ActiveTransfers)
	return next, true
}

// Snapshot returns the most recent counters without polling.
func (p *Poller) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	return p.snap
}

func call(fn Accessor) (v int, err error) {
	if fn == nil {
		return 0, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("accessor panicked: %v", r)
		}
	}()
	return fn()
}
