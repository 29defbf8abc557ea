package session

import "sync"

// Handle represents one in-flight request. It doubles as a one-shot future
// for the task's terminal outcome: Done is closed exactly once, when the
// task completes, fails, is invalidated, or is cancelled through this
// handle. Multipart chunk emissions flow through the callbacks only and do
// not resolve the handle.
type Handle struct {
	id     int
	done   chan struct{}
	res    Result
	err    error
	cancel func()
	once   sync.Once
}

func newHandle(id int, cancel func()) *Handle {
	return &Handle{
		id:     id,
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// resolvedHandle returns a handle that is already terminal, used for Send
// calls that fail before a task is created.
func resolvedHandle(err error) *Handle {
	h := newHandle(0, func() {})
	h.resolve(Result{}, err)

	return h
}

// TaskID returns the transport-assigned identifier, or 0 if no task was
// ever created for this handle.
func (h *Handle) TaskID() int { return h.id }

// Done returns a channel that is closed when the task reaches a terminal
// outcome.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Result blocks until the task reaches a terminal outcome and returns it.
func (h *Handle) Result() (Result, error) {
	<-h.done

	return h.res, h.err
}

// Cancel removes the task from the registry and requests transport
// cancellation. No completion callback fires as a result of this call;
// the handle itself resolves with context.Canceled.
func (h *Handle) Cancel() {
	h.cancel()
}

func (h *Handle) resolve(res Result, err error) {
	h.once.Do(func() {
		h.res = res
		h.err = err
		close(h.done)
	})
}
