// Package fetcher exposes the session client builder.
package fetcher

import (
	"github.com/adamwoolhether/fetcher/session"
	"github.com/adamwoolhether/fetcher/session/httptransport"
)

// NewClient instantiates a new *session.Client backed by the net/http
// transport adapter. Pass session.WithTransport to swap in a different
// transport; later options override earlier ones.
func NewClient(opts ...session.Option) (*session.Client, error) {
	base := []session.Option{session.WithTransport(httptransport.Factory())}

	return session.Build(append(base, opts...)...)
}
