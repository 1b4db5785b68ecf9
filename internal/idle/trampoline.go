// Package idle defers state-mutating callbacks out of the render pass.
//
// The host calls Flush at its idle point, after the pass that requested the
// callbacks has finished. Requests for a kind that is already pending are
// coalesced, and a callback that re-defers its own kind lands in the next
// Flush rather than the current one.
package idle

import "github.com/atomicstack/assetdesk/internal/logging/events"

// Kind names a class of deferred callback.
type Kind string

const (
	SearchApply Kind = "search-apply"
)

type entry struct {
	kind Kind
	fn   func()
}

// Trampoline holds at most one pending callback per kind. It is owned by the
// render goroutine and is not safe for concurrent use.
type Trampoline struct {
	pending map[Kind]bool
	queue   []entry
}

// New returns an empty trampoline.
func New() *Trampoline {
	return &Trampoline{pending: map[Kind]bool{}}
}

// DeferOnce records fn to run at the next idle point. It returns false, and
// drops fn, when kind already has a pending callback.
func (t *Trampoline) DeferOnce(kind Kind, fn func()) bool {
	if fn == nil {
		return false
	}
	if t.pending[kind] {
		events.Idle.Coalesce(string(kind))
		return false
	}
	t.pending[kind] = true
	t.queue = append(t.queue, entry{kind: kind, fn: fn})
	events.Idle.Defer(string(kind))
	return true
}

// Pending reports whether any callback is waiting for an idle point.
func (t *Trampoline) Pending() bool {
	return len(t.queue) > 0
}

// IsPending reports whether kind has a callback waiting.
func (t *Trampoline) IsPending(kind Kind) bool {
	return t.pending[kind]
}

// Flush runs the callbacks queued before the call, in request order, and
// returns how many ran. Each kind's guard is cleared before its callback runs.
func (t *Trampoline) Flush() int {
	batch := t.queue
	t.queue = nil
	for _, e := range batch {
		delete(t.pending, e.kind)
		events.Idle.Fire(string(e.kind))
		run(e)
	}
	return len(batch)
}

func run(e entry) {
	defer func() {
		if r := recover(); r != nil {
			events.Idle.Panic(string(e.kind), r)
		}
	}()
	e.fn()
}
