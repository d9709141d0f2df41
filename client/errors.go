package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error codes used for failures that never reached the backend. Backend
// failures carry whatever code the envelope (or raw HTTP status) held.
const (
	// CodeNetwork marks a request that was sent but got no response
	// (timeout, connection refused, DNS failure).
	CodeNetwork = 0

	// CodeUnknown marks a failure before the request was sent, or a 2xx
	// body that could not be decoded.
	CodeUnknown = -1
)

const networkErrorMessage = "Network error - no response received"

// APIError is the single error shape every failure path converges to,
// whether the failure came from the envelope, the HTTP layer, or the
// transport. Callers handle exactly one shape.
type APIError struct {
	Code    int
	Message string
	// Details carries the envelope's data field (API errors), the raw
	// response body (HTTP errors), or a request/transport description.
	Details json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// AsAPIError unwraps err into an *APIError if one is in its chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsAuthError reports whether err is a 401 authentication failure.
func IsAuthError(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == 401
}

// IsNetworkError reports whether err is a no-response transport failure.
func IsNetworkError(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == CodeNetwork
}

// newTransportError builds the APIError for a request that got no response.
// Details records the method and URL that failed.
func newTransportError(method, url string) *APIError {
	detail, _ := json.Marshal(fmt.Sprintf("%s %s", method, url))
	return &APIError{Code: CodeNetwork, Message: networkErrorMessage, Details: detail}
}

// newUnknownError builds the APIError for a failure before send or an
// undecodable success body.
func newUnknownError(err error) *APIError {
	msg := "Unknown error occurred"
	if err != nil {
		msg = err.Error()
	}
	detail, _ := json.Marshal(msg)
	return &APIError{Code: CodeUnknown, Message: msg, Details: detail}
}
