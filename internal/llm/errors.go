package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies provider failures for retry decisions.
type Kind string

const (
	KindUnavailable   Kind = "unavailable"
	KindRateLimited   Kind = "rate_limited"
	KindInvalidOutput Kind = "invalid_output"
	KindTruncated     Kind = "truncated"
)

// Error is a classified provider failure.
type Error struct {
	Kind       Kind
	Provider   string
	RetryAfter time.Duration
	Content    json.RawMessage
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("llm %s", e.Kind)
	if e.Provider != "" {
		msg = fmt.Sprintf("llm %s (%s)", e.Kind, e.Provider)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err if it wraps an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// fromStatus classifies an HTTP-level provider error.
func fromStatus(provider string, status int, err error) error {
	kind := KindUnavailable
	if status == http.StatusTooManyRequests {
		kind = KindRateLimited
	}
	return &Error{Kind: kind, Provider: provider, Err: err}
}
