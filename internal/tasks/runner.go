// Package tasks runs single-shot background checks on behalf of the render
// loop.
//
// Each Kind has at most one live task. Workers never touch view state: their
// outcome is sent on Results and only takes effect when the owner passes it
// back through Deliver, which is also where the success sink fires.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/atomicstack/assetdesk/internal/logging/events"
	"github.com/google/uuid"
)

// Kind identifies a family of background task.
type Kind string

const (
	ToolUpdate     Kind = "tool-update"
	CatalogRefresh Kind = "catalog-refresh"
)

// Work is one asynchronous unit. It must return promptly once ctx is done.
// The summary is surfaced in Status on success.
type Work func(ctx context.Context) (summary string, err error)

// Sink receives the summary of a successful task on the owner goroutine.
type Sink func(summary string)

var (
	ErrRunnerClosed = errors.New("task runner closed")
	ErrCancelled    = errors.New("task cancelled")
)

// State is the lifecycle position of the latest task of a kind.
type State int

const (
	StateIdle State = iota
	StatePending
	StateRunning
	StateSucceeded
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status is the presentation-facing view of a kind's latest task.
type Status struct {
	Kind      Kind
	State     State
	Handle    uuid.UUID
	Summary   string
	Err       error
	Scheduled time.Time
	Started   time.Time
	Finished  time.Time
}

// Completion is what a worker reports when it exits.
type Completion struct {
	Kind    Kind
	Handle  uuid.UUID
	Summary string
	Err     error
}

// Runner schedules and tracks tasks for one session. A closed runner is never
// reopened; build a new one for a new session.
type Runner struct {
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	live    map[Kind]*Handle
	last    map[Kind]*Handle
	status  map[Kind]Status
	results chan Completion
	drained chan struct{}
	closed  bool
	wg      sync.WaitGroup
	now     func() time.Time
}

// NewRunner returns a runner bound to a fresh session context.
func NewRunner() *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		ctx:     ctx,
		cancel:  cancel,
		live:    map[Kind]*Handle{},
		last:    map[Kind]*Handle{},
		status:  map[Kind]Status{},
		results: make(chan Completion, 16),
		drained: make(chan struct{}),
		now:     time.Now,
	}
}

// Results carries worker completions. It is closed once the runner has shut
// down and every worker has exited.
func (r *Runner) Results() <-chan Completion {
	return r.results
}

// Schedule starts work for kind after delay. It is a no-op returning false
// when a task of that kind is already pending, running, or awaiting delivery,
// or when the runner is closed. The sink runs on Deliver after success.
func (r *Runner) Schedule(kind Kind, delay time.Duration, work Work, sink Sink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		events.Task.Skip(string(kind), "closed")
		return false
	}
	if _, busy := r.live[kind]; busy {
		events.Task.Skip(string(kind), "in-flight")
		return false
	}
	h := newHandle(r.ctx, kind, sink)
	prev := r.last[kind]
	r.live[kind] = h
	r.last[kind] = h
	r.status[kind] = Status{Kind: kind, State: StatePending, Handle: h.id, Scheduled: r.now()}
	events.Task.Schedule(string(kind), h.id.String(), delay.Milliseconds())

	r.wg.Add(1)
	go r.run(h, prev, delay, work)
	return true
}

func (r *Runner) run(h *Handle, prev *Handle, delay time.Duration, work Work) {
	defer r.wg.Done()
	defer close(h.done)

	// Same-kind tasks never overlap: wait out a cancelled predecessor.
	if prev != nil {
		select {
		case <-prev.done:
		case <-h.ctx.Done():
			r.send(h, "", ErrCancelled)
			return
		}
	}
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-h.ctx.Done():
			timer.Stop()
			r.send(h, "", ErrCancelled)
			return
		}
	}
	if h.ctx.Err() != nil {
		r.send(h, "", ErrCancelled)
		return
	}

	r.markRunning(h)
	summary, err := safeWork(h.ctx, work)
	if h.ctx.Err() != nil {
		err = fmt.Errorf("%w: %v", ErrCancelled, h.ctx.Err())
	}
	r.send(h, summary, err)
}

func (r *Runner) markRunning(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.live[h.kind]; ok && cur == h {
		st := r.status[h.kind]
		st.State = StateRunning
		st.Started = r.now()
		r.status[h.kind] = st
	}
	events.Task.Start(string(h.kind), h.id.String())
}

func (r *Runner) send(h *Handle, summary string, err error) {
	c := Completion{Kind: h.kind, Handle: h.id, Summary: summary, Err: err}
	select {
	case r.results <- c:
	case <-r.ctx.Done():
	}
}

func safeWork(ctx context.Context, work Work) (summary string, err error) {
	if work == nil {
		return "", nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panicked: %v", rec)
		}
	}()
	return work(ctx)
}

// Deliver applies a completion on the owner goroutine. Completions from
// cancelled or superseded handles are dropped. It returns true only when the
// task succeeded and its sink was invoked.
func (r *Runner) Deliver(c Completion) bool {
	r.mu.Lock()
	h, ok := r.live[c.Kind]
	if !ok || h.id != c.Handle {
		r.mu.Unlock()
		events.Task.Stale(string(c.Kind), c.Handle.String())
		return false
	}
	delete(r.live, c.Kind)
	h.dispose()
	st := r.status[c.Kind]
	st.Finished = r.now()
	st.Err = c.Err
	switch {
	case c.Err == nil:
		st.State = StateSucceeded
		st.Summary = c.Summary
	case errors.Is(c.Err, ErrCancelled):
		st.State = StateCancelled
	default:
		st.State = StateFailed
	}
	r.status[c.Kind] = st
	r.mu.Unlock()

	if c.Err != nil {
		if st.State == StateFailed {
			events.Task.Failed(string(c.Kind), c.Handle.String(), c.Err)
		}
		return false
	}
	events.Task.Done(string(c.Kind), c.Handle.String(), c.Summary)
	if h.sink != nil {
		h.sink(c.Summary)
	}
	return true
}

// Cancel requests cooperative cancellation of the live task of kind. The
// task's sink will never fire afterwards.
func (r *Runner) Cancel(kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelLocked(kind)
}

func (r *Runner) cancelLocked(kind Kind) bool {
	h, ok := r.live[kind]
	if !ok {
		return false
	}
	delete(r.live, kind)
	h.cancel()
	h.dispose()
	st := r.status[kind]
	st.State = StateCancelled
	st.Err = ErrCancelled
	st.Finished = r.now()
	r.status[kind] = st
	events.Task.Cancel(string(kind), h.id.String())
	return true
}

// CancelAll cancels every live task and returns how many were cancelled.
func (r *Runner) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for kind := range r.live {
		if r.cancelLocked(kind) {
			n++
		}
	}
	return n
}

// InFlight reports whether kind has a live task.
func (r *Runner) InFlight(kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.live[kind]
	return ok
}

// Live returns the handle of kind's live task, if any.
func (r *Runner) Live(kind Kind) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.live[kind]
	return h, ok
}

// Status returns the latest status for kind.
func (r *Runner) Status(kind Kind) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.status[kind]
	if !ok {
		return Status{Kind: kind}
	}
	return st
}

// Statuses returns every known status ordered by kind.
func (r *Runner) Statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, 0, len(r.status))
	for _, st := range r.status {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Closed reports whether Shutdown has been called.
func (r *Runner) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Shutdown cancels every task and waits for workers to exit, or for ctx to
// expire. Results is closed once all workers are gone.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		for kind := range r.live {
			r.cancelLocked(kind)
		}
		r.cancel()
		go func() {
			r.wg.Wait()
			close(r.results)
			close(r.drained)
		}()
	}
	r.mu.Unlock()

	select {
	case <-r.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
