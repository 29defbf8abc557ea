package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Client is the request engine orchestrator. It owns the task registry and
// the transport handle, routes transport events to per-task state, and
// guarantees exactly one terminal outcome per task.
//
// A Client is safe for concurrent use. Once invalidated it is permanently
// dead: every pending task fails, and every later Send fails immediately.
type Client struct {
	transport   Transport
	logger      *slog.Logger
	tracer      trace.Tracer
	reg         *registry
	invalidated atomic.Bool
}

// Build creates a Client with the given options. A transport factory is
// required; the default slog logger and a no-op tracer are used unless
// overridden.
func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.transport == nil {
		return nil, fmt.Errorf("building client: transport factory is required")
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	if opts.tracer == nil {
		opts.tracer = noop.NewTracerProvider().Tracer("no-op tracer")
	}

	client := &Client{
		logger: opts.logger,
		tracer: opts.tracer,
		reg:    newRegistry(),
	}

	transport, err := opts.transport(client)
	if err != nil {
		return nil, fmt.Errorf("building transport: %w", err)
	}
	client.transport = transport

	return client, nil
}

// Send issues the request through the transport and registers its task.
// The completion callback receives every logical outcome: each multipart
// chunk (if the response is multipart) and exactly one terminal result.
// Errors never escape through the return value; failures that prevent a
// task from being created are delivered through the callback, and the
// returned handle is already resolved.
func (c *Client) Send(req *http.Request, completion CompletionFunc, optFns ...SendOption) *Handle {
	var opts sendOpts
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			completion(Result{}, err)
			return resolvedHandle(err)
		}
	}

	if c.invalidated.Load() {
		err := fmt.Errorf("sending request: %w", ErrSessionInvalidated)
		completion(Result{}, err)
		return resolvedHandle(err)
	}

	ctx, span := c.tracer.Start(req.Context(), "session.send", trace.WithAttributes(
		attribute.String("request.id", uuid.NewString()),
		attribute.String("http.method", req.Method),
		attribute.String("http.url", req.URL.String()),
	))
	defer span.End()
	req = req.WithContext(ctx)

	handle, err := c.transport.CreateTask(req)
	if err != nil {
		err = fmt.Errorf("creating transport task: %w", err)
		span.RecordError(err)
		completion(Result{}, err)
		return resolvedHandle(err)
	}

	id := handle.TaskID()
	span.SetAttributes(attribute.Int("task.id", id))

	t := &task{
		id:          id,
		description: opts.description,
		request:     req,
		handle:      handle,
		completion:  completion,
		raw:         opts.raw,
	}
	t.future = newHandle(id, func() { c.cancelTask(id) })

	c.reg.insert(id, t)

	// Invalidation may have raced in between the flag check and the insert;
	// a task registered after the broadcast drain would otherwise hang.
	if c.invalidated.Load() {
		if _, ok := c.reg.take(id); ok {
			c.transport.Cancel(handle)
			err := fmt.Errorf("sending request: %w", ErrSessionInvalidated)
			completion(Result{}, err)
			t.future.resolve(Result{}, err)
		}
		return t.future
	}

	c.transport.Resume(handle)
	c.logger.Debug("task started", "id", id, "method", req.Method, "url", req.URL.String(), "description", opts.description)

	return t.future
}

// Clear removes a task's state without invoking any callback. Intended for
// administrative cleanup; callers wanting the silent-cancellation contract
// should use [Handle.Cancel].
func (c *Client) Clear(id int) {
	c.reg.remove(id)
}

// ClearAll removes all task state in one atomic clear, invoking no
// callbacks. Calling it on an empty registry is a no-op.
func (c *Client) ClearAll() {
	c.reg.drain()
}

// Invalidate permanently shuts the client down: every later Send fails
// immediately, the transport session is invalidated and cancelled, and
// every pending task's completion callback receives a failure wrapping err
// (or ErrSessionInvalidated alone if err is nil). Repeated calls are safe.
func (c *Client) Invalidate(err error) {
	c.invalidated.Store(true)
	c.transport.InvalidateAndCancel()
	c.failAll(err)
}

// HandleSessionInvalid implements [EventSink]. Transport-driven session
// death behaves exactly like a caller-driven Invalidate, minus re-poking
// the transport.
func (c *Client) HandleSessionInvalid(err error) {
	c.invalidated.Store(true)
	c.failAll(err)
}

// HandleResponse implements [EventSink].
func (c *Client) HandleResponse(id int, resp *Response) {
	t, ok := c.reg.get(id)
	if !ok {
		c.logger.Debug("response for untracked task", "id", id)
		return
	}

	t.responseReceived(resp)
}

// HandleData implements [EventSink]. For multipart payloads each newly
// completed chunk is emitted through the raw and completion callbacks, in
// arrival order, and the buffer resets to the unscanned remainder. Scan
// failures fail the task immediately and unregister it, so a later
// completion event for the same id is a silent no-op.
func (c *Client) HandleData(id int, p []byte) {
	t, ok := c.reg.get(id)
	if !ok {
		c.logger.Debug("data for untracked task", "id", id, "bytes", len(p))
		return
	}

	chunks, resp, err := t.ingest(p)

	for _, chunk := range chunks {
		if t.raw != nil {
			t.raw(chunk, resp, nil)
		}
		t.completion(Result{Data: chunk, Response: resp}, nil)
	}

	if err != nil {
		if _, ok := c.reg.take(id); !ok {
			return
		}
		c.logger.Error("multipart scan failed", "id", id, "error", err)
		c.transport.Cancel(t.handle)
		t.completion(Result{}, err)
		t.future.resolve(Result{}, err)
	}
}

// HandleComplete implements [EventSink]. The registry removal is the single
// gate: if the id is untracked (already cancelled, cleared, or failed) the
// event is silently dropped.
func (c *Client) HandleComplete(id int, terminal error) {
	t, ok := c.reg.take(id)
	if !ok {
		c.logger.Debug("completion for untracked task", "id", id)
		return
	}

	data, resp := t.snapshot()

	if t.raw != nil {
		t.raw(data, resp, terminal)
	}

	res, err := resolve(t.request, data, resp, terminal)
	t.completion(res, err)
	t.future.resolve(res, err)

	c.logger.Debug("task finished", "id", id, "error", err)
}

// cancelTask is the Handle.Cancel implementation: best effort and silent.
// The take is the gate; once removed, no completion callback can fire for
// the task even if transport events were already queued.
func (c *Client) cancelTask(id int) {
	t, ok := c.reg.take(id)
	if !ok {
		return
	}

	c.transport.Cancel(t.handle)
	t.future.resolve(Result{}, context.Canceled)
	c.logger.Debug("task cancelled", "id", id)
}

// failAll broadcasts a session-level failure to every registered task and
// clears the registry in one atomic drain. Iteration order is unspecified.
func (c *Client) failAll(cause error) {
	err := ErrSessionInvalidated
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrSessionInvalidated, cause)
	}

	tasks := c.reg.drain()
	for _, t := range tasks {
		t.completion(Result{}, err)
		t.future.resolve(Result{}, err)
	}

	if len(tasks) > 0 {
		c.logger.Debug("session invalidated", "failed_tasks", len(tasks), "cause", cause)
	}
}
