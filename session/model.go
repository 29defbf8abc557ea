package session

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// CompletionFunc receives a task's outcome. For plain tasks it is invoked
// exactly once, at terminal completion. For multipart tasks it is additionally
// invoked once per complete chunk before the terminal outcome, each time with
// a nil error and the chunk in Result.Data.
type CompletionFunc func(Result, error)

// RawFunc receives the raw bytes, metadata, and error for each logical
// outcome, alongside (not instead of) the CompletionFunc. Any of the three
// arguments may be zero-valued depending on what the transport delivered.
type RawFunc func(data []byte, resp *Response, err error)

// Result is a successful task outcome: the response body (or one multipart
// chunk of it) and the last response metadata seen.
type Result struct {
	Data     []byte
	Response *Response
}

// Response is the metadata portion of an HTTP response: everything except
// the body, which the engine accumulates separately.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
}

// IsMultipart reports whether the response declares a multipart media type.
func (r *Response) IsMultipart() bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))

	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

// MultipartBoundary extracts the boundary parameter from the Content-Type
// header. It returns ErrMissingBoundary if the header can't be parsed or
// carries no boundary token.
func (r *Response) MultipartBoundary() (string, error) {
	contentType := r.Header.Get("Content-Type")

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: parsing %q: %w", ErrMissingBoundary, contentType, err)
	}

	boundary := params["boundary"]
	if boundary == "" {
		return "", fmt.Errorf("%w: %q", ErrMissingBoundary, contentType)
	}

	return boundary, nil
}

// Transport is the underlying session object that opens connections and
// performs the actual I/O. The engine only drives task lifecycle through it;
// the transport pushes events back through the EventSink it was built with.
type Transport interface {
	CreateTask(req *http.Request) (TaskHandle, error)
	Resume(handle TaskHandle)
	Cancel(handle TaskHandle)
	InvalidateAndCancel()
}

// TaskHandle identifies one transport task. Identifiers are assigned by the
// transport and must be unique among its outstanding tasks.
type TaskHandle interface {
	TaskID() int
}

// EventSink receives transport events. *Client implements it; transports
// must deliver events for a single task in order, though deliveries may
// arrive on any goroutine.
type EventSink interface {
	// HandleResponse records response metadata for the task. Redirect-driven
	// re-deliveries overwrite prior metadata; last writer wins.
	HandleResponse(id int, resp *Response)

	// HandleData appends a body chunk to the task's accumulated buffer.
	HandleData(id int, p []byte)

	// HandleComplete resolves the task's terminal outcome. A nil error means
	// the transport finished cleanly. Unknown ids are ignored.
	HandleComplete(id int, err error)

	// HandleSessionInvalid fails every registered task and marks the
	// client invalidated.
	HandleSessionInvalid(err error)
}

// TransportFunc constructs a Transport bound to the given sink. Adapters
// expose a factory of this shape so that Build can hand them the client
// as their event sink.
type TransportFunc func(sink EventSink) (Transport, error)
