package client

// This file defines functional options that configure the Client during
// construction. Keeping them in a standalone file avoids cluttering
// client.go and makes it easy to discover all available knobs at a glance.

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Option mutates the Client during New().
type Option func(*Client) error

// WithHTTPClient injects a custom *http.Client. Useful for setting transport
// timeouts, tracing, custom TLS settings, etc. The caller is responsible for
// attaching a cookie jar if session cookies are needed.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("nil http client")
		}
		c.http = hc
		return nil
	}
}

// WithTimeout overrides the default 10s per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("non-positive timeout")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithDebugLogging wraps the client's transport such that every
// request/response is logged when `enabled` is true.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			transport := c.http.Transport
			if transport == nil {
				transport = http.DefaultTransport
			}
			c.http.Transport = &debugTransport{base: transport}
		}
		return nil
	}
}

// WithRecoveryHandler installs the session recovery hook invoked whenever a
// 401 is observed, either inside the envelope or as a raw HTTP status.
// Without one, 401s are returned to the caller like any other APIError.
func WithRecoveryHandler(h RecoveryHandler) Option {
	return func(c *Client) error {
		c.recovery = h
		return nil
	}
}

// WithRateLimit caps outgoing requests at r per second with the given burst.
func WithRateLimit(r float64, burst int) Option {
	return func(c *Client) error {
		if r <= 0 || burst <= 0 {
			return fmt.Errorf("invalid rate limit")
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
		return nil
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}
