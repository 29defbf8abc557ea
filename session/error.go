package session

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/adamwoolhether/fetcher/session/multipart"
)

var (
	// ErrNoResponse is wrapped by [NoResponseError] when a task finishes
	// cleanly without any response metadata ever arriving.
	ErrNoResponse = errors.New("no response received")
	// ErrSessionInvalidated is delivered to every pending task when the
	// client is invalidated, and to any Send attempted afterwards.
	ErrSessionInvalidated = errors.New("session invalidated")
	// ErrMissingBoundary indicates a multipart response whose Content-Type
	// carries no parsable boundary token.
	ErrMissingBoundary = errors.New("missing multipart boundary")
	// ErrCannotDecodeChunk indicates accumulated bytes that could not be
	// decoded for multipart scanning.
	ErrCannotDecodeChunk = multipart.ErrCannotDecode
)

// NoResponseError is returned when the transport completes a task without
// error but no metadata was ever delivered. It carries the original request
// for diagnostics.
type NoResponseError struct {
	Request *http.Request
}

func (e *NoResponseError) Error() string {
	if e.Request == nil || e.Request.URL == nil {
		return ErrNoResponse.Error()
	}

	return fmt.Sprintf("%v: %s %s", ErrNoResponse, e.Request.Method, e.Request.URL)
}

func (e *NoResponseError) Unwrap() error {
	return ErrNoResponse
}

// NetworkError wraps a transport failure together with whatever the task
// had accumulated when it failed: the buffered body bytes and the last
// response metadata, if any arrived.
type NetworkError struct {
	Data     []byte
	Response *Response
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Response != nil {
		return fmt.Sprintf("network error: %v (status %d, %d bytes buffered)", e.Err, e.Response.StatusCode, len(e.Data))
	}

	return fmt.Sprintf("network error: %v (%d bytes buffered)", e.Err, len(e.Data))
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
