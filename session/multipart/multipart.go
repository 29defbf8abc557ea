// Package multipart implements incremental scanning of a multipart byte
// stream whose delivery is chunked arbitrarily by the transport.
//
// The scanner operates on the buffer accumulated so far and decides, on every
// delivery, whether a complete boundary-delimited part can be emitted or
// whether more bytes must be buffered. Parts are surfaced as they complete;
// the scanner never waits for the closing marker to release an intermediate
// part, and never releases a part whose terminating delimiter has not yet
// arrived.
package multipart

import (
	"bytes"
	"errors"
	"unicode/utf8"
)

// ErrCannotDecode indicates accumulated bytes that do not form valid UTF-8
// and therefore cannot be scanned as multipart text.
var ErrCannotDecode = errors.New("cannot decode multipart data")

const crlf = "\r\n"

// Scanner scans for parts delimited by a fixed boundary token. A part is
// delimited by "--boundary" markers at the start of a line; "--boundary--"
// closes the stream. Scanner is stateless and safe for concurrent use.
type Scanner struct {
	delim []byte // "--" + boundary
}

// NewScanner returns a Scanner for the given boundary token.
func NewScanner(boundary string) *Scanner {
	return &Scanner{
		delim: []byte("--" + boundary),
	}
}

// Next reports the earliest complete part in buf. When a part is fully
// delimited, Next returns its payload, the remainder starting at the
// delimiter that terminated it, and found=true; callers re-invoke Next on
// the remainder until found is false. A false result with a nil error means
// the data is genuinely partial and more bytes must be buffered.
func (s *Scanner) Next(buf []byte) (part, rest []byte, found bool, err error) {
	if len(buf) == 0 {
		return nil, buf, false, nil
	}

	if !utf8.Valid(buf) {
		return nil, buf, false, ErrCannotDecode
	}

	open := s.indexDelim(buf, 0)
	if open < 0 {
		return nil, buf, false, nil // preamble still arriving
	}

	if s.isClose(buf[open:]) {
		return nil, buf, false, nil // end of stream, nothing left to emit
	}

	// The part's payload starts after the opening delimiter's line break.
	nl := bytes.Index(buf[open:], []byte(crlf))
	if nl < 0 {
		return nil, buf, false, nil
	}
	start := open + nl + len(crlf)

	next := s.indexDelim(buf, start)
	if next < 0 {
		return nil, buf, false, nil // terminating delimiter not yet delivered
	}

	part = bytes.TrimSuffix(buf[start:next], []byte(crlf))

	return part, buf[next:], true, nil
}

// indexDelim locates the first boundary delimiter at or after from that
// sits at the start of a line (or the start of the buffer).
func (s *Scanner) indexDelim(buf []byte, from int) int {
	for i := from; i <= len(buf)-len(s.delim); {
		j := bytes.Index(buf[i:], s.delim)
		if j < 0 {
			return -1
		}

		at := i + j
		if at == 0 || bytes.HasSuffix(buf[:at], []byte(crlf)) || buf[at-1] == '\n' {
			return at
		}

		i = at + 1
	}

	return -1
}

// isClose reports whether the delimiter at the start of buf is the stream's
// closing marker, "--boundary--".
func (s *Scanner) isClose(buf []byte) bool {
	tail := buf[len(s.delim):]

	return bytes.HasPrefix(tail, []byte("--"))
}
