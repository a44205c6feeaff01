package fredsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/fredsync/date"
	"github.com/shopspring/decimal"
)

// Observation is a single (date, value) point returned by a data provider.
// A date the provider has no value for is simply absent from the sequence,
// never present with a null value.
type Observation struct {
	Date  date.Date
	Value decimal.Decimal
}

// SeriesInfo holds the descriptive metadata a provider publishes for a series.
type SeriesInfo struct {
	Title     string
	Units     string
	Frequency string
	Seasonal  string
	URL       string
}

// Provider is the read contract against the external time-series provider.
// Implementations are safe for concurrent use and enforce their own request
// budget: a call suspends while the budget is exhausted, it is never dropped.
type Provider interface {
	// Fetch returns the observations for a series within r, in ascending
	// date order. Failures are *ProviderError values carrying a Kind.
	Fetch(ctx context.Context, code string, r date.Range) ([]Observation, error)
	// SeriesInfo returns the descriptive metadata for a series.
	SeriesInfo(ctx context.Context, code string) (SeriesInfo, error)
}

// Kind classifies a provider failure so that callers can branch on it
// instead of catching generic errors.
type Kind int

const (
	// KindRateLimited means the provider signaled throttling. Retryable
	// after a provider-specified or exponentially growing delay.
	KindRateLimited Kind = iota + 1
	// KindNotFound means the series code is unknown to the provider.
	// Not retryable; surfaced to the caller.
	KindNotFound
	// KindTransient covers network errors and timeouts. Retryable with
	// bounded exponential backoff.
	KindTransient
	// KindFatal means the provider answered with a malformed response.
	// Not retryable.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate-limited"
	case KindNotFound:
		return "not-found"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ProviderError is a classified provider failure.
type ProviderError struct {
	Kind Kind
	Code string // series code the request was about
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s error for series %q: %v", e.Kind, e.Code, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or 0 when err is not a
// provider error.
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// Retryable reports whether err is a provider failure worth retrying.
func Retryable(err error) bool {
	k := KindOf(err)
	return k == KindRateLimited || k == KindTransient
}
