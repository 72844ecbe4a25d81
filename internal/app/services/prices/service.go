package prices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tickerd/tickerd/internal/app/domain/observation"
	"github.com/tickerd/tickerd/internal/app/storage"
	"github.com/tickerd/tickerd/pkg/logger"
)

// ErrInvalidInput marks requests the caller must fix, as opposed to lookups
// that simply matched nothing.
var ErrInvalidInput = errors.New("invalid input")

// dateLayout is the only accepted calendar date format.
const dateLayout = "2006-01-02"

// Service answers read requests against the observation store. Each request
// translates into exactly one store query.
type Service struct {
	store storage.ObservationStore
	log   *logger.Logger
}

// New constructs a query service.
func New(store storage.ObservationStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("prices")
	}
	return &Service{store: store, log: log}
}

// ByTicker returns every observation recorded for the ticker. A ticker with
// no observations yields an empty slice, not an error.
func (s *Service) ByTicker(ctx context.Context, ticker string) ([]observation.Observation, error) {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	obs, err := s.store.ListByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if obs == nil {
		obs = []observation.Observation{}
	}
	return obs, nil
}

// Latest returns the most recently stamped observation for the ticker.
// Absence surfaces as storage.ErrNotFound, never as a zero value.
func (s *Service) Latest(ctx context.Context, ticker string) (observation.Observation, error) {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return observation.Observation{}, err
	}
	return s.store.LatestByTicker(ctx, ticker)
}

// ByDate returns observations for the ticker whose timestamp falls on the
// given YYYY-MM-DD calendar date. Day boundaries are computed in UTC, the
// same timezone the scheduler runs in; the range is [00:00:00, 23:59:59]
// inclusive.
func (s *Service) ByDate(ctx context.Context, ticker, date string) ([]observation.Observation, error) {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q is not a valid YYYY-MM-DD date", ErrInvalidInput, date)
	}

	from := day.Unix()
	to := day.AddDate(0, 0, 1).Unix() - 1

	obs, err := s.store.ListByTimeRange(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}
	if obs == nil {
		obs = []observation.Observation{}
	}
	return obs, nil
}

func normalizeTicker(ticker string) (string, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return "", fmt.Errorf("%w: ticker is required", ErrInvalidInput)
	}
	return ticker, nil
}
