package client

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httputil"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// defaultTimeout bounds every request; exceeding it surfaces as a network
// error with code 0.
const defaultTimeout = 10 * time.Second

// --------------------------------------------------------------------
// debugTransport – optional HTTP round-trip logger
// --------------------------------------------------------------------

type debugTransport struct{ base http.RoundTripper }

func debugEnabled() bool {
	return os.Getenv("CONSOLE_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if debugEnabled() {
		reqDump, err := httputil.DumpRequestOut(req, true)
		if err == nil {
			log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", string(reqDump)).Msg("HTTP request")
		}
	}

	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		if debugEnabled() {
			log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		}
		return nil, err
	}

	if debugEnabled() {
		respDump, err := httputil.DumpResponse(resp, true)
		if err == nil {
			log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
		}
	}
	return resp, nil
}

// --------------------------------------------------------------------
// Client core
// --------------------------------------------------------------------

// Client talks to one console API surface (primary or billing). Every
// response passes through the envelope normalizer in do(); callers see
// either decoded data or an *APIError, never the envelope itself.
type Client struct {
	baseURL   string
	http      *http.Client
	recovery  RecoveryHandler
	limiter   *rate.Limiter
	userAgent string

	closedOnce uint32 // ensures Close is idempotent
}

// New constructs a Client with optional functional arguments. The default
// transport carries a cookie jar so the backend's httpOnly session cookie
// rides along on every call.
func New(base string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: defaultTimeout, Jar: jar},
	}

	// Auto-enable debug via env variable without changing code.
	if debugEnabled() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			panic(err)
		}
	}
	return c
}

// Close releases client resources. Safe to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	c.http.CloseIdleConnections()
	return nil
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string { return c.baseURL }
