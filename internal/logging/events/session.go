package events

import "github.com/atomicstack/assetdesk/internal/logging"

type SessionTracer struct{}

type UITracer struct{}

var (
	Session = SessionTracer{}
	UI      = UITracer{}
)

func (SessionTracer) Event(source string, targets []string) {
	logging.Trace("session.event", map[string]interface{}{"source": source, "targets": targets})
}

func (SessionTracer) Rebuild(target, level string) {
	logging.Trace("session.rebuild", map[string]interface{}{"target": target, "level": level})
}

func (SessionTracer) RebuildError(target string, err error) {
	logging.Warn("session", "rebuild failed", map[string]interface{}{"target": target, "error": err.Error()})
}

func (SessionTracer) Restart(reason string) {
	logging.Trace("session.restart", map[string]interface{}{"reason": reason})
}

func (SessionTracer) Close() {
	logging.Trace("session.close", nil)
}

func (UITracer) Mode(mode string) {
	logging.Trace("ui.mode", map[string]interface{}{"mode": mode})
}

func (UITracer) Key(mode, key string) {
	logging.Trace("ui.key", map[string]interface{}{"mode": mode, "key": key})
}

func (UITracer) BackendError(kind string, err error) {
	logging.Warn("ui", "backend event failed", map[string]interface{}{"kind": kind, "error": err.Error()})
}
