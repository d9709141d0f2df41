package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// envelope is the uniform wrapper every backend response uses:
//
//	{ "code": <int>, "message": <string>, "data": <any>, "timestamp": "<ISO8601>" }
//
// code 0 or 200 signals success. Code is a pointer so a body without the
// wrapper (raw HTTP error pages, proxies) is distinguishable from code 0.
type envelope struct {
	Code      *int            `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

func (e *envelope) success() bool {
	return e.Code != nil && (*e.Code == 0 || *e.Code == http.StatusOK)
}

// do issues one request and normalizes the outcome. On success, out (if
// non-nil) receives the envelope's data field and the caller never sees the
// wrapper. Every failure, regardless of layer, returns an *APIError:
//
//	envelope code ∉ {0,200}  -> that code, envelope message, data as details
//	raw non-2xx HTTP status  -> status code, status text, body as details
//	sent but no response     -> code 0
//	failed before sending    -> code -1
//
// A 401 from either the envelope or the raw status additionally fires the
// session recovery handler before the error is returned.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			requestsTotal.WithLabelValues(outcomeUnknown).Inc()
			return newUnknownError(err)
		}
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			requestsTotal.WithLabelValues(outcomeUnknown).Inc()
			return newUnknownError(err)
		}
		reader = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		requestsTotal.WithLabelValues(outcomeUnknown).Inc()
		return newUnknownError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", uuid.NewString())
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		requestsTotal.WithLabelValues(outcomeNetwork).Inc()
		log.Warn().Err(err).Str("method", method).Str("url", reqURL).Msg("no response received")
		return newTransportError(method, reqURL)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(outcomeNetwork).Inc()
		return newTransportError(method, reqURL)
	}

	var env envelope
	if jsonErr := json.Unmarshal(raw, &env); jsonErr == nil && env.Code != nil {
		return c.finishEnveloped(ctx, method, path, &env, out)
	}

	// The body did not carry the envelope: classify by HTTP status alone.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.triggerRecovery(ctx, path)
		}
		msg := http.StatusText(resp.StatusCode)
		if msg == "" {
			msg = "Request failed"
		}
		requestsTotal.WithLabelValues(outcomeHTTP).Inc()
		return &APIError{Code: resp.StatusCode, Message: msg, Details: json.RawMessage(raw)}
	}

	requestsTotal.WithLabelValues(outcomeUnknown).Inc()
	return newUnknownError(fmt.Errorf("undecodable response body (status %d)", resp.StatusCode))
}

// finishEnveloped resolves a response that carried the uniform wrapper.
func (c *Client) finishEnveloped(ctx context.Context, method, path string, env *envelope, out interface{}) error {
	if env.success() {
		if out != nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
			if err := json.Unmarshal(env.Data, out); err != nil {
				requestsTotal.WithLabelValues(outcomeUnknown).Inc()
				return newUnknownError(err)
			}
		}
		requestsTotal.WithLabelValues(outcomeSuccess).Inc()
		return nil
	}

	if *env.Code == http.StatusUnauthorized {
		c.triggerRecovery(ctx, path)
	}

	requestsTotal.WithLabelValues(outcomeAPI).Inc()
	log.Debug().Int("code", *env.Code).Str("method", method).Str("path", path).Str("message", env.Message).Msg("api error")
	return &APIError{Code: *env.Code, Message: env.Message, Details: env.Data}
}

// triggerRecovery hands a detected 401 to the installed handler. The handler
// contract guarantees it never throws; the guard here is against a nil
// handler only.
func (c *Client) triggerRecovery(ctx context.Context, intendedPath string) {
	if c.recovery == nil {
		return
	}
	log.Warn().Str("path", intendedPath).Msg("authentication failed, starting session recovery")
	sessionRecoveriesTotal.Inc()
	c.recovery.HandleAuthFailure(ctx, intendedPath)
}

// get issues a GET and decodes the envelope data into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// post issues a POST with a JSON body and decodes the envelope data into out.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}
