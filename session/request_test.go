package session_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/fetcher/session"
)

func TestNewRequest_Defaults(t *testing.T) {
	u := session.URL("https", "api.example.com", "/query")

	req, err := session.NewRequest(context.Background(), u, http.MethodGet)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("exp default content type application/json, got %q", got)
	}
}

func TestNewRequest_Payload(t *testing.T) {
	u := session.URL("https", "api.example.com", "/query")
	payload := map[string]string{"query": "{ feed }"}

	req, err := session.NewRequest(context.Background(), u, http.MethodPost,
		session.WithPayload(payload),
		session.WithHeaders(map[string][]string{"X-Request-Source": {"test"}}),
	)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if diff := cmp.Diff(payload, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if got := req.Header.Get("X-Request-Source"); got != "test" {
		t.Errorf("exp custom header, got %q", got)
	}
}

func TestNewRequest_EmptyContentType(t *testing.T) {
	u := session.URL("https", "api.example.com", "/query")

	if _, err := session.NewRequest(context.Background(), u, http.MethodGet, session.WithContentType("")); err == nil {
		t.Error("exp error for empty content type")
	}
}

func TestURL_Options(t *testing.T) {
	u := session.URL("http", "localhost", "/path",
		session.WithPort(8080),
		session.WithQueryStrings(map[string]string{"a": "1"}),
	)

	if got, want := u.String(), "http://localhost:8080/path?a=1"; got != want {
		t.Errorf("exp %q, got %q", want, got)
	}
}
