package session

import (
	"net/http"
	"sync"

	"github.com/adamwoolhether/fetcher/session/multipart"
)

// task is the per-task mutable record: the accumulated body buffer, the
// last-seen response metadata, and the callbacks to fire on each logical
// outcome. The registry owns exactly one task per outstanding identifier.
type task struct {
	id          int
	description string
	request     *http.Request
	handle      TaskHandle
	completion  CompletionFunc
	raw         RawFunc
	future      *Handle

	mu   sync.Mutex
	data []byte
	resp *Response
}

// ingest appends p to the accumulated buffer and, if the response metadata
// marks the payload as multipart, scans for newly completed chunks. The
// buffer is reset to the unscanned remainder; completed chunks are returned
// for the caller to emit outside the lock, in arrival order.
func (t *task) ingest(p []byte) (chunks [][]byte, resp *Response, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data = append(t.data, p...)
	resp = t.resp

	if resp == nil || !resp.IsMultipart() {
		return nil, resp, nil
	}

	boundary, err := resp.MultipartBoundary()
	if err != nil {
		return nil, resp, err
	}

	scanner := multipart.NewScanner(boundary)
	buf := t.data
	for {
		chunk, rest, found, err := scanner.Next(buf)
		if err != nil {
			return nil, resp, err
		}
		if !found {
			break
		}

		chunks = append(chunks, chunk)
		buf = rest
	}
	t.data = buf

	return chunks, resp, nil
}

// reset atomically replaces the accumulated buffer with the given remainder.
func (t *task) reset(remainder []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data = remainder
}

// append concatenates p to the accumulated buffer without scanning.
func (t *task) append(p []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data = append(t.data, p...)
}

// responseReceived records response metadata. Redirect-driven re-deliveries
// overwrite whatever was recorded before; last writer wins.
func (t *task) responseReceived(resp *Response) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resp = resp
}

// snapshot returns the accumulated buffer and metadata for terminal
// resolution.
func (t *task) snapshot() ([]byte, *Response) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.data, t.resp
}
