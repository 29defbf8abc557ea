package session

import "net/http"

// resolve decides a task's terminal outcome from its accumulated state.
//
// A transport error always wins and is wrapped together with whatever
// accumulated. A clean finish with metadata is a success carrying the
// buffered body. A clean finish with no metadata ever delivered means the
// exchange never really happened, which surfaces as NoResponseError with
// the original request for diagnostics.
func resolve(req *http.Request, data []byte, resp *Response, terminal error) (Result, error) {
	switch {
	case terminal != nil:
		return Result{}, &NetworkError{Data: data, Response: resp, Err: terminal}
	case resp == nil:
		return Result{}, &NoResponseError{Request: req}
	default:
		return Result{Data: data, Response: resp}, nil
	}
}
