package client

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrorKind buckets normalized errors for retry and display decisions.
type ErrorKind string

const (
	KindNetwork        ErrorKind = "NETWORK"
	KindAuthentication ErrorKind = "AUTHENTICATION"
	KindAuthorization  ErrorKind = "AUTHORIZATION"
	KindValidation     ErrorKind = "VALIDATION"
	KindServer         ErrorKind = "SERVER"
	KindUnknown        ErrorKind = "UNKNOWN"
)

// Severity ranks how loudly an error should be surfaced and logged.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Classification is the pure, side-effect-free annotation derived from an
// error code. It is advisory: callers may ignore it and handle the raw
// *APIError directly.
type Classification struct {
	Kind        ErrorKind
	Severity    Severity
	ShouldRetry bool
	// RetryAfter is the classified delay before the next attempt; zero
	// means no fixed delay was assigned (exponential backoff applies).
	RetryAfter time.Duration
}

// Classify maps an error code to its kind, severity and retry eligibility.
//
//	0 (no response)      NETWORK        retry after 2s
//	401                  AUTHENTICATION no retry
//	403                  AUTHORIZATION  no retry
//	429                  VALIDATION     retry after 5s (rate limit)
//	other 4xx            VALIDATION     no retry
//	5xx except 501       SERVER         retry after 3s
//	501                  SERVER         no retry
//	anything else        UNKNOWN        no retry
func Classify(code int) Classification {
	switch {
	case code == CodeNetwork:
		return Classification{Kind: KindNetwork, Severity: SeverityHigh, ShouldRetry: true, RetryAfter: 2 * time.Second}
	case code == http.StatusUnauthorized:
		return Classification{Kind: KindAuthentication, Severity: SeverityCritical}
	case code == http.StatusForbidden:
		return Classification{Kind: KindAuthorization, Severity: SeverityHigh}
	case code == http.StatusTooManyRequests:
		return Classification{Kind: KindValidation, Severity: SeverityMedium, ShouldRetry: true, RetryAfter: 5 * time.Second}
	case code >= 400 && code < 500:
		return Classification{Kind: KindValidation, Severity: SeverityMedium}
	case code == http.StatusNotImplemented:
		return Classification{Kind: KindServer, Severity: SeverityCritical}
	case code >= 500 && code < 600:
		return Classification{Kind: KindServer, Severity: SeverityCritical, ShouldRetry: true, RetryAfter: 3 * time.Second}
	default:
		return Classification{Kind: KindUnknown, Severity: SeverityMedium}
	}
}

// ProcessedError is a Classification joined with the error it came from,
// plus a display-ready user message. Never mutated after construction.
type ProcessedError struct {
	Kind        ErrorKind
	Severity    Severity
	Message     string
	UserMessage string
	Code        int
	Details     json.RawMessage
	ShouldRetry bool
	RetryAfter  time.Duration
}

// Process derives a ProcessedError from any error. Non-APIError values are
// treated as pre-send client failures (code -1, UNKNOWN).
func Process(err error) ProcessedError {
	apiErr, ok := AsAPIError(err)
	if !ok {
		msg := "Unknown error"
		if err != nil {
			msg = err.Error()
		}
		return ProcessedError{
			Kind:        KindUnknown,
			Severity:    SeverityMedium,
			Message:     msg,
			UserMessage: "The operation failed, please try again",
			Code:        CodeUnknown,
		}
	}

	cls := Classify(apiErr.Code)
	return ProcessedError{
		Kind:        cls.Kind,
		Severity:    cls.Severity,
		Message:     apiErr.Message,
		UserMessage: userMessage(cls.Kind, apiErr.Message),
		Code:        apiErr.Code,
		Details:     apiErr.Details,
		ShouldRetry: cls.ShouldRetry,
		RetryAfter:  cls.RetryAfter,
	}
}

func userMessage(kind ErrorKind, message string) string {
	switch kind {
	case KindNetwork:
		return "Network connection failed, check your connection and retry"
	case KindAuthentication:
		return "Your session has expired, please sign in again"
	case KindAuthorization:
		return "You do not have permission to perform this operation"
	case KindValidation:
		if message != "" {
			return message
		}
		return "Invalid request, check the input and retry"
	case KindServer:
		return "The server cannot handle the request right now, retry later"
	default:
		if message != "" {
			return message
		}
		return "The operation failed, please try again"
	}
}

// Log writes the error at a level matching its severity. context names the
// call site.
func (p ProcessedError) Log(context string) {
	var ev *zerolog.Event
	switch p.Severity {
	case SeverityCritical, SeverityHigh:
		ev = log.Error()
	case SeverityMedium:
		ev = log.Warn()
	default:
		ev = log.Info()
	}
	ev.Str("kind", string(p.Kind)).Int("code", p.Code).Str("context", context).Msg(p.Message)
}
