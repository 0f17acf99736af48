// Package gateway wraps the GitHub REST API behind a narrow interface and
// classifies every failure into a closed set of kinds so callers never have
// to inspect transport details or HTTP status codes.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

// Kind classifies a gateway failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindRateLimited
	KindTransient
	KindNotFound
	KindForbidden
	KindBadCredentials
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate-limited"
	case KindTransient:
		return "transient"
	case KindNotFound:
		return "not-found"
	case KindForbidden:
		return "forbidden"
	case KindBadCredentials:
		return "bad-credentials"
	default:
		return "unknown"
	}
}

// APIError is the only error type the gateway returns. ResetAt and
// RetryAfter are backoff hints, populated for rate-limit failures when the
// API provided them.
type APIError struct {
	Kind       Kind
	Op         string
	ResetAt    time.Time
	RetryAfter time.Duration
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *APIError) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) Kind {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// Retryable reports whether the retry wrapper may re-attempt the call.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindTransient, KindUnknown:
		return true
	}
	return false
}

// Hints returns the rate-limit backoff hints from an error chain, zero
// values if absent.
func Hints(err error) (resetAt time.Time, retryAfter time.Duration) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.ResetAt, ae.RetryAfter
	}
	return time.Time{}, 0
}

// classify maps a go-github (or plain transport) error to an APIError.
// Classification uses the client's structured error types; the message
// substring check at the bottom is a fallback for opaque transport errors
// only.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return &APIError{Kind: KindRateLimited, Op: op, ResetAt: rle.Rate.Reset.Time, Err: err}
	}
	var arle *github.AbuseRateLimitError
	if errors.As(err, &arle) {
		e := &APIError{Kind: KindRateLimited, Op: op, Err: err}
		if arle.RetryAfter != nil {
			e.RetryAfter = *arle.RetryAfter
		}
		return e
	}
	var ger *github.ErrorResponse
	if errors.As(err, &ger) && ger.Response != nil {
		switch code := ger.Response.StatusCode; {
		case code == 401:
			return &APIError{Kind: KindBadCredentials, Op: op, Err: err}
		case code == 403:
			return &APIError{Kind: KindForbidden, Op: op, Err: err}
		case code == 404 || code == 410:
			return &APIError{Kind: KindNotFound, Op: op, Err: err}
		case code >= 500:
			return &APIError{Kind: KindTransient, Op: op, Err: err}
		default:
			return &APIError{Kind: KindUnknown, Op: op, Err: err}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Kind: KindTransient, Op: op, Err: err}
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return &APIError{Kind: KindTransient, Op: op, Err: err}
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return &APIError{Kind: KindTransient, Op: op, Err: err}
	}

	// Fallback for errors that surface without structure.
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection reset", "connection refused", "broken pipe", "unexpected eof", "timeout"} {
		if strings.Contains(msg, s) {
			return &APIError{Kind: KindTransient, Op: op, Err: err}
		}
	}

	return &APIError{Kind: KindUnknown, Op: op, Err: err}
}
