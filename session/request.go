package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// RequestOption is a functional option for [NewRequest].
type RequestOption func(*requestOpts) error

type requestOpts struct {
	body        any
	contentType *string
	headers     map[string][]string
	cookies     []*http.Cookie
}

// WithPayload sets the JSON-encoded request body.
func WithPayload(body any) RequestOption {
	return func(o *requestOpts) error {
		o.body = body

		return nil
	}
}

// WithContentType overrides the default "application/json" Content-Type header.
func WithContentType(contentType string) RequestOption {
	return func(o *requestOpts) error {
		if contentType == "" {
			return errors.New("cannot use empty content type")
		}
		o.contentType = &contentType

		return nil
	}
}

// WithHeaders adds custom headers to the outgoing request.
func WithHeaders(headers map[string][]string) RequestOption {
	return func(o *requestOpts) error {
		o.headers = headers

		return nil
	}
}

// WithCookies attaches the given cookies to the outgoing request.
func WithCookies(cookies ...*http.Cookie) RequestOption {
	return func(o *requestOpts) error {
		o.cookies = cookies

		return nil
	}
}

// NewRequest instantiates an *http.Request suitable for [Client.Send].
// Content-Type defaults to "application/json" if unspecified via
// WithContentType.
func NewRequest(ctx context.Context, reqURL *url.URL, method string, optFns ...RequestOption) (*http.Request, error) {
	var opts requestOpts
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, err
		}
	}

	var payload bytes.Buffer
	if opts.body != nil {
		if err := json.NewEncoder(&payload).Encode(opts.body); err != nil {
			return nil, fmt.Errorf("encoding request payload: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), &payload)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	for _, cookie := range opts.cookies {
		req.AddCookie(cookie)
	}

	contentType := "application/json"
	if opts.contentType != nil {
		contentType = *opts.contentType
	}

	req.Header.Set("Content-Type", contentType)
	for k, v := range opts.headers {
		for _, element := range v {
			req.Header.Add(k, element)
		}
	}

	return req, nil
}

// URLOption is a functional option for [URL].
type URLOption func(*urlOpts)

type urlOpts struct {
	queryStrings map[string]string
	port         *int
}

// WithQueryStrings appends query parameters to the URL.
func WithQueryStrings(queryKV map[string]string) URLOption {
	return func(o *urlOpts) {
		o.queryStrings = queryKV
	}
}

// WithPort sets the port number on the URL's host.
func WithPort(port int) URLOption {
	return func(o *urlOpts) {
		o.port = &port
	}
}

// URL creates a url.URL for use in [NewRequest].
func URL(scheme, host, path string, optFns ...URLOption) *url.URL {
	var opts urlOpts
	for _, opt := range optFns {
		opt(&opts)
	}

	if opts.port != nil {
		host = fmt.Sprintf("%s:%d", host, *opts.port)
	}

	endpoint := url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   path,
	}

	if opts.queryStrings != nil {
		queryParams := url.Values{}
		for k, v := range opts.queryStrings {
			queryParams.Add(k, v)
		}
		endpoint.RawQuery = queryParams.Encode()
	}

	return &endpoint
}
