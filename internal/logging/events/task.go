package events

import "github.com/atomicstack/assetdesk/internal/logging"

type TaskTracer struct{}

type IdleTracer struct{}

var (
	Task = TaskTracer{}
	Idle = IdleTracer{}
)

func (TaskTracer) Schedule(kind, handle string, delayMS int64) {
	logging.Trace("task.schedule", map[string]interface{}{"kind": kind, "handle": handle, "delay_ms": delayMS})
}

func (TaskTracer) Skip(kind, reason string) {
	logging.Trace("task.skip", map[string]interface{}{"kind": kind, "reason": reason})
}

func (TaskTracer) Start(kind, handle string) {
	logging.Trace("task.start", map[string]interface{}{"kind": kind, "handle": handle})
}

func (TaskTracer) Cancel(kind, handle string) {
	logging.Trace("task.cancel", map[string]interface{}{"kind": kind, "handle": handle})
}

func (TaskTracer) Stale(kind, handle string) {
	logging.Trace("task.stale", map[string]interface{}{"kind": kind, "handle": handle})
}

func (TaskTracer) Done(kind, handle, summary string) {
	logging.Trace("task.done", map[string]interface{}{"kind": kind, "handle": handle, "summary": summary})
}

func (TaskTracer) Failed(kind, handle string, err error) {
	logging.Warn("tasks", "task failed", map[string]interface{}{"kind": kind, "handle": handle, "error": err.Error()})
}

func (IdleTracer) Defer(kind string) {
	logging.Trace("idle.defer", map[string]interface{}{"kind": kind})
}

func (IdleTracer) Coalesce(kind string) {
	logging.Trace("idle.coalesce", map[string]interface{}{"kind": kind})
}

func (IdleTracer) Fire(kind string) {
	logging.Trace("idle.fire", map[string]interface{}{"kind": kind})
}

func (IdleTracer) Panic(kind string, recovered interface{}) {
	logging.Warn("idle", "deferred callback panicked", map[string]interface{}{"kind": kind, "panic": recovered})
}
