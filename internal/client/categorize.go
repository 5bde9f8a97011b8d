package client

import (
	"context"
	"errors"

	"github.com/skywash/skywash-api/internal/circuitbreaker"
)

// FailureReason is a stable label for fetch failure classification, used
// in metrics and per-city degrade logs.
type FailureReason string

const (
	ReasonTimeout     FailureReason = "timeout"
	ReasonUpstream    FailureReason = "upstream"
	ReasonBadPayload  FailureReason = "bad_payload"
	ReasonOutOfRange  FailureReason = "out_of_range"
	ReasonBreakerOpen FailureReason = "breaker_open"
	ReasonUnknown     FailureReason = "unknown"
)

// Categorize maps a fetch error to a stable FailureReason.
func Categorize(err error) FailureReason {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ReasonTimeout
	case errors.Is(err, circuitbreaker.ErrOpen):
		return ReasonBreakerOpen
	case errors.Is(err, ErrOutOfRange):
		return ReasonOutOfRange
	case errors.Is(err, ErrBadPayload):
		return ReasonBadPayload
	case errors.Is(err, ErrUpstreamFailure):
		return ReasonUpstream
	default:
		return ReasonUnknown
	}
}
