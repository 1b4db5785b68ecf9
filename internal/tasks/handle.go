package tasks

import (
	"context"

	"github.com/google/uuid"
)

// Handle is the cancellation handle of one scheduled task. Every Schedule call
// builds a new handle; a disposed handle is never reused.
type Handle struct {
	id     uuid.UUID
	kind   Kind
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	sink   Sink

	disposed bool
}

func newHandle(parent context.Context, kind Kind, sink Sink) *Handle {
	ctx, cancel := context.WithCancel(parent)
	return &Handle{
		id:     uuid.New(),
		kind:   kind,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		sink:   sink,
	}
}

func (h *Handle) ID() uuid.UUID {
	return h.id
}

func (h *Handle) Kind() Kind {
	return h.kind
}

// Done is closed when the worker has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// dispose releases the context. Callers hold the runner lock.
func (h *Handle) dispose() {
	if h.disposed {
		return
	}
	h.disposed = true
	h.cancel()
}
