// Package transport delivers encoded payloads to the collector.
package transport

import "net/http"

// Option applies a configuration option to the HTTPSender.
type Option func(*HTTPSender)

// WithHTTPClient replaces the underlying HTTP client, e.g. to configure a
// proxy or connection pool.
func WithHTTPClient(client *http.Client) Option {
	return func(s *HTTPSender) {
		if client != nil {
			s.client = client
		}
	}
}
