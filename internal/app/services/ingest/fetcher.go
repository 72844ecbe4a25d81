package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/tickerd/tickerd/internal/app/domain/observation"
)

// Fetcher retrieves the current reference price for a ticker.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string) (observation.Observation, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, ticker string) (observation.Observation, error)

func (f FetcherFunc) Fetch(ctx context.Context, ticker string) (observation.Observation, error) {
	if f == nil {
		return observation.Observation{}, nil
	}
	return f(ctx, ticker)
}

// FetchKind classifies fetch failures.
type FetchKind int

const (
	// FetchNetwork covers DNS failures, refused connections and non-2xx
	// responses.
	FetchNetwork FetchKind = iota
	// FetchTimeout marks a request that exceeded the bounded fetch timeout.
	FetchTimeout
	// FetchUnexpectedFormat marks a transport-level success whose body did
	// not contain the expected result fields.
	FetchUnexpectedFormat
)

func (k FetchKind) String() string {
	switch k {
	case FetchTimeout:
		return "timeout"
	case FetchUnexpectedFormat:
		return "unexpected_format"
	default:
		return "network"
	}
}

// FetchError describes a failed fetch for one ticker. For unexpected-format
// failures Body preserves the raw response for diagnostics.
type FetchError struct {
	Kind   FetchKind
	Ticker string
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.Ticker, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.Ticker, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// fetchStatus returns the metrics label for a fetch outcome.
func fetchStatus(err error) string {
	if err == nil {
		return "ok"
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind.String()
	}
	return "error"
}
