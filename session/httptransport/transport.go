// Package httptransport adapts net/http to the transport contract consumed
// by the session engine. Each task runs the request on its own goroutine and
// streams the response body back to the engine in bounded reads, so data
// deliveries are genuinely incremental.
package httptransport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/adamwoolhether/fetcher/session"
	"github.com/adamwoolhether/fetcher/throttle"
)

// ErrInvalidated is returned by CreateTask after the transport session has
// been invalidated.
var ErrInvalidated = errors.New("transport invalidated")

// defaultChunkSize bounds a single body read. Small enough that multipart
// chunks surface promptly, large enough to keep syscall overhead low.
const defaultChunkSize = 32 << 10 // 32KB

// Transport drives HTTP exchanges for the session engine. Redirects are
// followed as-is by the embedded http.Client, so only the final response's
// metadata reaches the sink, and TLS configuration is whatever the client
// carries.
type Transport struct {
	client    *http.Client
	sink      session.EventSink
	logger    *slog.Logger
	chunkSize int

	mu          sync.Mutex
	nextID      int
	cancels     map[int]context.CancelFunc
	invalidated atomic.Bool
}

// Factory returns a transport factory for [session.WithTransport]. Options
// are validated when the factory runs, so a misconfiguration surfaces as a
// [session.Build] error.
func Factory(optFns ...Option) session.TransportFunc {
	return func(sink session.EventSink) (session.Transport, error) {
		var opts options
		for _, opt := range optFns {
			if err := opt(&opts); err != nil {
				return nil, fmt.Errorf("applying transport option: %w", err)
			}
		}

		cfg := opts.cfg
		if cfg.ReadChunkSize == 0 {
			cfg.ReadChunkSize = defaultChunkSize
		}
		if err := validateConfig(cfg); err != nil {
			return nil, fmt.Errorf("validating transport config: %w", err)
		}

		logger := opts.logger
		if logger == nil {
			logger = slog.Default()
		}

		client := opts.client
		if client == nil {
			client = &http.Client{}
		}
		if cfg.Timeout > 0 {
			client.Timeout = cfg.Timeout
		}

		var rt http.RoundTripper
		switch {
		case opts.rt != nil:
			rt = opts.rt
		case client.Transport != nil:
			rt = client.Transport
		default:
			rt = http.DefaultTransport
		}
		if cfg.ThrottleRPS > 0 {
			throttled, err := throttle.NewRoundTripper(throttle.Config{RPS: cfg.ThrottleRPS, Burst: cfg.ThrottleBurst}, logger, rt)
			if err != nil {
				return nil, fmt.Errorf("configuring throttle: %w", err)
			}
			rt = throttled
		}
		client.Transport = rt

		return &Transport{
			client:    client,
			sink:      sink,
			logger:    logger,
			chunkSize: cfg.ReadChunkSize,
			cancels:   make(map[int]context.CancelFunc),
		}, nil
	}
}

// taskHandle pairs a transport-assigned identifier with the request already
// bound to its cancellable context.
type taskHandle struct {
	id  int
	req *http.Request
}

func (h *taskHandle) TaskID() int { return h.id }

// CreateTask implements [session.Transport].
func (t *Transport) CreateTask(req *http.Request) (session.TaskHandle, error) {
	if t.invalidated.Load() {
		return nil, ErrInvalidated
	}

	ctx, cancel := context.WithCancel(req.Context())

	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.cancels[id] = cancel
	t.mu.Unlock()

	return &taskHandle{id: id, req: req.WithContext(ctx)}, nil
}

// Resume implements [session.Transport], starting the exchange on its own
// goroutine.
func (t *Transport) Resume(handle session.TaskHandle) {
	th, ok := handle.(*taskHandle)
	if !ok {
		t.logger.Error("resume of foreign task handle", "id", handle.TaskID())
		return
	}

	go t.run(th)
}

// Cancel implements [session.Transport], aborting the task's context.
func (t *Transport) Cancel(handle session.TaskHandle) {
	t.mu.Lock()
	cancel := t.cancels[handle.TaskID()]
	delete(t.cancels, handle.TaskID())
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// InvalidateAndCancel implements [session.Transport]: refuses new tasks,
// aborts every in-flight exchange, and closes idle connections.
func (t *Transport) InvalidateAndCancel() {
	t.invalidated.Store(true)

	t.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(t.cancels))
	for _, cancel := range t.cancels {
		cancels = append(cancels, cancel)
	}
	clear(t.cancels)
	t.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}

	t.client.CloseIdleConnections()
}

// run performs the exchange and streams events into the sink. Events for a
// single task are delivered in order from this one goroutine.
func (t *Transport) run(th *taskHandle) {
	defer func() {
		t.mu.Lock()
		delete(t.cancels, th.id)
		t.mu.Unlock()
	}()

	resp, err := t.client.Do(th.req)
	if err != nil {
		t.sink.HandleComplete(th.id, err)
		return
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.logger.Error("closing response body", "id", th.id, "error", err)
		}
	}()

	t.sink.HandleResponse(th.id, &session.Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
	})

	buf := make([]byte, t.chunkSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			t.sink.HandleData(th.id, bytes.Clone(buf[:n]))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			t.sink.HandleComplete(th.id, err)
			return
		}
	}
}
