package httptransport

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Config holds the transport's tunables. Zero values mean defaults.
type Config struct {
	// ReadChunkSize bounds a single response body read.
	ReadChunkSize int `json:"read_chunk_size" validate:"omitempty,gte=64,lte=1048576"`
	// Timeout is the overall per-request timeout on the underlying client.
	Timeout time.Duration `json:"timeout" validate:"gte=0"`
	// ThrottleRPS and ThrottleBurst enable token-bucket rate limiting of
	// outbound requests when both are set.
	ThrottleRPS   int `json:"throttle_rps" validate:"gte=0"`
	ThrottleBurst int `json:"throttle_burst" validate:"gte=0,required_with=ThrottleRPS"`
}

// Option is a functional option for [Factory].
type Option func(*options) error

type options struct {
	client *http.Client
	rt     http.RoundTripper
	logger *slog.Logger
	cfg    Config
}

// WithHTTPClient replaces the default [http.Client] used by the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		o.client = hc

		return nil
	}
}

// WithRoundTripper sets a custom [http.RoundTripper] as the base transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return errors.New("round tripper must not be nil")
		}
		o.rt = rt

		return nil
	}
}

// WithLogger injects a custom [slog.Logger].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger

		return nil
	}
}

// WithConfig sets the transport tunables, validated when the factory runs.
func WithConfig(cfg Config) Option {
	return func(o *options) error {
		o.cfg = cfg

		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests
// per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		o.cfg.ThrottleRPS = rps
		o.cfg.ThrottleBurst = burst

		return nil
	}
}
