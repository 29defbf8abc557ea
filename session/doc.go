// Package session implements a client-side network request engine that
// issues HTTP requests through a pluggable transport, tracks each in-flight
// task's accumulating response bytes under concurrent chunk delivery, and
// resolves every task to exactly one terminal success or failure.
//
// # Building a Client
//
// Use [Build] with a transport factory; the adapter in
// [github.com/adamwoolhether/fetcher/session/httptransport] provides one
// backed by net/http:
//
//	c, err := session.Build(
//		session.WithTransport(httptransport.Factory()),
//		session.WithLogger(logger),
//	)
//
// # Sending Requests
//
// [Client.Send] registers a task and returns a cancellable [Handle] that
// doubles as a one-shot future for the terminal outcome:
//
//	h := c.Send(req, func(res session.Result, err error) {
//		// one call per logical outcome
//	})
//	res, err := h.Result() // blocks until terminal
//
// # Multipart Streaming
//
// When the response declares a multipart media type, each boundary-delimited
// part is surfaced through the completion callback as soon as it is fully
// delimited, before the task completes. The terminal outcome then follows as
// usual. Parts are never batched to the end of the stream, and genuinely
// partial data is never emitted early.
//
// # Invalidation
//
// [Client.Invalidate] is a one-way door: every pending task fails with
// [ErrSessionInvalidated], the registry clears, and all later Send calls
// fail immediately without creating a task.
package session
