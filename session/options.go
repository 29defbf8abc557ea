package session

import (
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error

type options struct {
	transport TransportFunc
	logger    *slog.Logger
	tracer    trace.Tracer
}

// WithTransport sets the factory that builds the underlying transport.
// Build hands the factory the new client as its event sink.
func WithTransport(fn TransportFunc) Option {
	return func(o *options) error {
		if fn == nil {
			return errors.New("transport factory must not be nil")
		}
		o.transport = fn

		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger

		return nil
	}
}

// WithTracer sets the tracer used to span each Send. A no-op tracer is
// used unless provided.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer

		return nil
	}
}

// SendOption is a functional option for [Client.Send].
type SendOption func(*sendOpts) error

type sendOpts struct {
	description string
	raw         RawFunc
}

// WithTaskDescription attaches a human-readable description to the task,
// surfaced in logs.
func WithTaskDescription(description string) SendOption {
	return func(o *sendOpts) error {
		o.description = description

		return nil
	}
}

// WithRawCallback registers a callback receiving the raw bytes, metadata,
// and error of each logical outcome, invoked alongside the completion
// callback.
func WithRawCallback(fn RawFunc) SendOption {
	return func(o *sendOpts) error {
		if fn == nil {
			return errors.New("raw callback must not be nil")
		}
		o.raw = fn

		return nil
	}
}
