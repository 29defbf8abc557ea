package multipart_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/fetcher/session/multipart"
)

const boundary = "graphql"

// scanAll drives Next exactly the way the engine does: repeatedly on the
// remainder until no further complete part is found.
func scanAll(t *testing.T, buf []byte) (parts []string, rest []byte) {
	t.Helper()

	s := multipart.NewScanner(boundary)
	for {
		part, remainder, found, err := s.Next(buf)
		if err != nil {
			t.Fatalf("unexpected scan error: %v", err)
		}
		if !found {
			return parts, buf
		}

		parts = append(parts, string(part))
		buf = remainder
	}
}

func TestScanner_CompleteParts(t *testing.T) {
	testCases := []struct {
		name     string
		buf      string
		expParts []string
	}{
		{
			name:     "empty buffer",
			buf:      "",
			expParts: nil,
		},
		{
			name:     "preamble only",
			buf:      "this stream has not produced a delimiter yet",
			expParts: nil,
		},
		{
			name:     "opening delimiter but no terminator",
			buf:      "--graphql\r\n{\"partial\":",
			expParts: nil,
		},
		{
			name:     "delimiter line itself still arriving",
			buf:      "--graphql",
			expParts: nil,
		},
		{
			name:     "one complete part",
			buf:      "--graphql\r\n{\"a\":1}\r\n--graphql\r\n",
			expParts: []string{`{"a":1}`},
		},
		{
			name:     "part terminated by the closing marker",
			buf:      "--graphql\r\n{\"a\":1}\r\n--graphql--\r\n",
			expParts: []string{`{"a":1}`},
		},
		{
			name:     "two complete parts and a partial third",
			buf:      "--graphql\r\n{\"a\":1}\r\n--graphql\r\n{\"b\":2}\r\n--graphql\r\n{\"c\":",
			expParts: []string{`{"a":1}`, `{"b":2}`},
		},
		{
			name:     "closing marker alone emits nothing",
			buf:      "--graphql--\r\n",
			expParts: nil,
		},
		{
			name:     "heartbeat empty part",
			buf:      "--graphql\r\n\r\n--graphql\r\n",
			expParts: []string{""},
		},
		{
			name:     "boundary text mid-line is not a delimiter",
			buf:      "--graphql\r\nthe token --graphql appears here\r\n--graphql\r\n",
			expParts: []string{"the token --graphql appears here"},
		},
		{
			name:     "multiline part with headers",
			buf:      "--graphql\r\ncontent-type: application/json\r\n\r\n{\"a\":1}\r\n--graphql--",
			expParts: []string{"content-type: application/json\r\n\r\n{\"a\":1}"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parts, _ := scanAll(t, []byte(tc.buf))

			if diff := cmp.Diff(tc.expParts, parts); diff != "" {
				t.Errorf("parts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScanner_NeverEmitsEarly(t *testing.T) {
	// A part that could still become the closing marker must stay buffered:
	// "--graphql-" may yet grow into "--graphql--".
	s := multipart.NewScanner(boundary)

	buf := []byte("--graphql\r\n{\"a\":1}\r\n--graphql-")
	_, _, found, err := s.Next(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The terminating delimiter has arrived, so the part is complete; the
	// ambiguous tail stays in the remainder.
	if !found {
		t.Fatal("expected the fully delimited part to be found")
	}
}

func TestScanner_IncrementalDelivery(t *testing.T) {
	// Feed the stream one byte at a time and assert each part surfaces
	// exactly once, as soon as its terminating delimiter is complete.
	stream := "--graphql\r\n{\"a\":1}\r\n--graphql\r\n{\"b\":2}\r\n--graphql--\r\n"
	s := multipart.NewScanner(boundary)

	var buf []byte
	var parts []string
	for i := 0; i < len(stream); i++ {
		buf = append(buf, stream[i])
		for {
			part, rest, found, err := s.Next(buf)
			if err != nil {
				t.Fatalf("unexpected error at byte %d: %v", i, err)
			}
			if !found {
				break
			}
			parts = append(parts, string(part))
			buf = rest
		}
	}

	expParts := []string{`{"a":1}`, `{"b":2}`}
	if diff := cmp.Diff(expParts, parts); diff != "" {
		t.Errorf("parts mismatch (-want +got):\n%s", diff)
	}
}

func TestScanner_Remainder(t *testing.T) {
	s := multipart.NewScanner(boundary)

	buf := []byte("--graphql\r\n{\"a\":1}\r\n--graphql\r\n{\"b\":")
	part, rest, found, err := s.Next(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected a complete part")
	}
	if got := string(part); got != `{"a":1}` {
		t.Errorf("exp part %q, got %q", `{"a":1}`, got)
	}
	if got := string(rest); got != "--graphql\r\n{\"b\":" {
		t.Errorf("exp remainder %q, got %q", "--graphql\r\n{\"b\":", got)
	}
}

func TestScanner_DecodeFailure(t *testing.T) {
	s := multipart.NewScanner(boundary)

	buf := []byte("--graphql\r\n")
	buf = append(buf, 0xff, 0xfe, 0xfd)

	_, _, _, err := s.Next(buf)
	if !errors.Is(err, multipart.ErrCannotDecode) {
		t.Errorf("exp %v, got %v", multipart.ErrCannotDecode, err)
	}
}
