// Package session owns the mutable state of one editor session and exposes
// the operations the host drives it with.
//
// A Coordinator is built once per session and torn down with Close. Every
// method must be called from the goroutine that owns the render loop; the only
// cross-goroutine traffic is task completions, which arrive on Results and are
// applied with Deliver.
package session

import (
	"context"
	"time"

	"github.com/atomicstack/assetdesk/internal/backend"
	"github.com/atomicstack/assetdesk/internal/data/dispatcher"
	"github.com/atomicstack/assetdesk/internal/idle"
	"github.com/atomicstack/assetdesk/internal/ledger"
	"github.com/atomicstack/assetdesk/internal/logging/events"
	"github.com/atomicstack/assetdesk/internal/tasks"
	"github.com/atomicstack/assetdesk/internal/wizard"
)

// Rebuilder regenerates one derived view from the level it was invalidated
// at. Idle rebuilders are deferred to the next idle point instead of running
// inside Tick.
type Rebuilder struct {
	Run  func(ledger.Level) error
	Idle bool
}

// Options configures a Coordinator.
type Options struct {
	Rebuilders map[ledger.Target]Rebuilder
	Table      dispatcher.Table

	PollInterval    time.Duration
	PendingUpdates  backend.Accessor
	ActiveTransfers backend.Accessor

	ToolCheck         tasks.Work
	ToolCheckDelay    time.Duration
	CatalogCheck      tasks.Work
	CatalogCheckDelay time.Duration

	Pages []wizard.Page
	Store wizard.Store
}

// Stats records how often a target was rebuilt.
type Stats struct {
	Target    ledger.Target
	Rebuilds  int
	Failures  int
	LastLevel ledger.Level
	LastErr   error
}

// Rebuild describes one rebuild attempt.
type Rebuild struct {
	Target ledger.Target
	Level  ledger.Level
	Err    error
}

// TickResult summarises one render pass.
type TickResult struct {
	Rebuilt  []Rebuild
	Deferred []ledger.Target
	Counters backend.Counters
	Polled   bool
}

// Coordinator is the single owner of the ledger, poll state, task runner,
// trampoline and wizard cursor.
type Coordinator struct {
	opts Options

	ledger     *ledger.Ledger
	dispatch   *dispatcher.Dispatcher
	poller     *backend.Poller
	runner     *tasks.Runner
	trampoline *idle.Trampoline
	wizard     *wizard.Wizard

	rebuilders map[ledger.Target]Rebuilder
	stats      map[ledger.Target]*Stats

	started      bool
	closed       bool
	ticks        int
	lastIdle     []Rebuild
	catalogStale bool
}

// New builds a coordinator. Pages and Store are required.
func New(opts Options) (*Coordinator, error) {
	wiz, err := wizard.New(opts.Pages, opts.Store)
	if err != nil {
		return nil, err
	}
	l := ledger.New()
	c := &Coordinator{
		opts:       opts,
		ledger:     l,
		dispatch:   dispatcher.New(l, opts.Table),
		poller:     backend.NewPoller(opts.PollInterval, opts.PendingUpdates, opts.ActiveTransfers),
		runner:     tasks.NewRunner(),
		trampoline: idle.New(),
		wizard:     wiz,
		rebuilders: map[ledger.Target]Rebuilder{},
		stats:      map[ledger.Target]*Stats{},
	}
	for target, rb := range opts.Rebuilders {
		if rb.Run == nil {
			continue
		}
		c.rebuilders[target] = rb
	}
	for _, target := range ledger.Targets {
		c.stats[target] = &Stats{Target: target}
	}
	wiz.OnFinish(func() {
		c.ledger.MarkDirty(ledger.Lookups, ledger.FullRewrite)
		c.dispatch.Handle(dispatcher.SourceSetupComplete)
	})
	return c, nil
}

// Start restores the wizard and schedules the startup checks. Later calls are
// ignored.
func (c *Coordinator) Start() {
	if c.started || c.closed {
		return
	}
	c.started = true
	c.wizard.Load()
	c.scheduleChecks()
}

func (c *Coordinator) scheduleChecks() {
	if c.opts.ToolCheck != nil {
		c.runner.Schedule(tasks.ToolUpdate, c.opts.ToolCheckDelay, c.opts.ToolCheck, func(string) {
			c.dispatch.Handle(dispatcher.SourceToolUpdate)
		})
	}
	if c.opts.CatalogCheck != nil {
		c.refreshCatalog(dispatcher.SourceCatalogRefreshed, c.opts.CatalogCheckDelay)
	}
}

// refreshCatalog re-reads the catalog through the runner and raises src's
// marks once the reload is delivered. A request that arrives while a refresh
// is already in flight is replayed after that refresh lands.
func (c *Coordinator) refreshCatalog(src dispatcher.Source, delay time.Duration) {
	ok := c.runner.Schedule(tasks.CatalogRefresh, delay, c.opts.CatalogCheck, func(string) {
		c.dispatch.Handle(src)
		if c.catalogStale {
			c.catalogStale = false
			c.refreshCatalog(dispatcher.SourceCatalogFile, 0)
		}
	})
	if !ok && !c.runner.Closed() {
		c.catalogStale = true
	}
}

// Tick runs one render pass: dirty targets are consumed in Targets order and
// rebuilt (or deferred to the idle point), then the poller gets its chance.
func (c *Coordinator) Tick(now time.Time) TickResult {
	var res TickResult
	if c.closed {
		res.Counters = c.poller.Snapshot()
		return res
	}
	c.ticks++
	for _, target := range ledger.Targets {
		rb, ok := c.rebuilders[target]
		if !ok {
			continue
		}
		if rb.Idle {
			if c.ledger.Peek(target) == ledger.None {
				continue
			}
			target := target
			if c.trampoline.DeferOnce(rebuildKind(target), func() { c.runIdle(target) }) {
				res.Deferred = append(res.Deferred, target)
			}
			continue
		}
		if r, ok := c.rebuild(target, rb); ok {
			res.Rebuilt = append(res.Rebuilt, r)
		}
	}
	res.Counters, res.Polled = c.poller.MaybePoll(now)
	return res
}

func rebuildKind(target ledger.Target) idle.Kind {
	return idle.Kind("rebuild:" + target.String())
}

// runIdle consumes the target when the idle callback fires, so marks raised
// between the tick and the idle point are folded into the same rebuild.
func (c *Coordinator) runIdle(target ledger.Target) {
	rb, ok := c.rebuilders[target]
	if !ok || c.closed {
		return
	}
	if r, ok := c.rebuild(target, rb); ok {
		c.lastIdle = append(c.lastIdle, r)
	}
}

func (c *Coordinator) rebuild(target ledger.Target, rb Rebuilder) (Rebuild, bool) {
	level, err := c.ledger.Rebuild(target, rb.Run)
	if level == ledger.None {
		return Rebuild{}, false
	}
	st := c.stats[target]
	st.Rebuilds++
	st.LastLevel = level
	st.LastErr = err
	if err != nil {
		st.Failures++
		events.Session.RebuildError(target.String(), err)
	} else {
		events.Session.Rebuild(target.String(), level.String())
	}
	return Rebuild{Target: target, Level: level, Err: err}, true
}

// FlushIdle runs the callbacks deferred during the previous pass and returns
// the idle rebuilds they performed.
func (c *Coordinator) FlushIdle() []Rebuild {
	c.lastIdle = nil
	c.trampoline.Flush()
	out := c.lastIdle
	c.lastIdle = nil
	return out
}

// IdlePending reports whether a callback is waiting for the idle point.
func (c *Coordinator) IdlePending() bool {
	return c.trampoline.Pending()
}

// Defer queues fn for the next idle point, coalescing per kind.
func (c *Coordinator) Defer(kind idle.Kind, fn func()) bool {
	if c.closed {
		return false
	}
	return c.trampoline.DeferOnce(kind, fn)
}

// Handle routes an external occurrence through the event table. A catalog
// file change first reloads the catalog; its marks follow on delivery.
func (c *Coordinator) Handle(src dispatcher.Source) dispatcher.Result {
	if c.closed {
		return dispatcher.Result{Source: src}
	}
	if src == dispatcher.SourceCatalogFile && c.opts.CatalogCheck != nil {
		c.refreshCatalog(src, 0)
		return dispatcher.Result{Source: src}
	}
	res := c.dispatch.Handle(src)
	if src == dispatcher.SourceStorageMoved {
		c.RestartTasks(string(src))
	}
	return res
}

// HandleEvent routes a watcher event through the event table.
func (c *Coordinator) HandleEvent(evt backend.Event) dispatcher.Result {
	if evt.Err != nil {
		events.UI.BackendError(evt.Kind.String(), evt.Err)
		return dispatcher.Result{}
	}
	src, ok := dispatcher.SourceFor(evt.Kind)
	if !ok {
		return dispatcher.Result{}
	}
	return c.Handle(src)
}

// MarkDirty raises a target directly.
func (c *Coordinator) MarkDirty(target ledger.Target, level ledger.Level) {
	if c.closed {
		return
	}
	c.ledger.MarkDirty(target, level)
}

// Dirty returns the pending level of target.
func (c *Coordinator) Dirty(target ledger.Target) ledger.Level {
	return c.ledger.Peek(target)
}

// Results carries task completions to be passed back through Deliver.
func (c *Coordinator) Results() <-chan tasks.Completion {
	return c.runner.Results()
}

// Deliver applies a task completion on the owner goroutine.
func (c *Coordinator) Deliver(comp tasks.Completion) bool {
	return c.runner.Deliver(comp)
}

// Schedule starts an ad hoc task through the session runner.
func (c *Coordinator) Schedule(kind tasks.Kind, delay time.Duration, work tasks.Work, sink tasks.Sink) bool {
	return c.runner.Schedule(kind, delay, work, sink)
}

// TaskStatus returns the latest status of kind.
func (c *Coordinator) TaskStatus(kind tasks.Kind) tasks.Status {
	return c.runner.Status(kind)
}

// TaskStatuses returns every known task status.
func (c *Coordinator) TaskStatuses() []tasks.Status {
	return c.runner.Statuses()
}

// RestartTasks cancels live tasks and schedules the startup checks again with
// fresh handles.
func (c *Coordinator) RestartTasks(reason string) {
	if c.closed {
		return
	}
	events.Session.Restart(reason)
	c.runner.CancelAll()
	c.scheduleChecks()
}

// Counters returns the last poll snapshot.
func (c *Coordinator) Counters() backend.Counters {
	return c.poller.Snapshot()
}

// PollInterval returns the configured poll spacing.
func (c *Coordinator) PollInterval() time.Duration {
	return c.poller.Interval()
}

// Stats returns per-target rebuild statistics in Targets order.
func (c *Coordinator) Stats() []Stats {
	out := make([]Stats, 0, len(ledger.Targets))
	for _, target := range ledger.Targets {
		out = append(out, *c.stats[target])
	}
	return out
}

// Ticks returns how many render passes have run.
func (c *Coordinator) Ticks() int {
	return c.ticks
}

// Wizard returns the setup state machine.
func (c *Coordinator) Wizard() *wizard.Wizard {
	return c.wizard
}

// InWizard reports whether the session is still in the setup mode.
func (c *Coordinator) InWizard() bool {
	return !c.wizard.Done()
}

// Closed reports whether Close has been called.
func (c *Coordinator) Closed() bool {
	return c.closed
}

// Close cancels every task and waits for workers to exit or ctx to expire.
func (c *Coordinator) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true
	events.Session.Close()
	return c.runner.Shutdown(ctx)
}
