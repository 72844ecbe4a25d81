package prices

import (
	"context"
	"errors"
	"testing"

	"github.com/tickerd/tickerd/internal/app/domain/observation"
	"github.com/tickerd/tickerd/internal/app/storage"
	"github.com/tickerd/tickerd/internal/app/storage/memory"
)

func seededService(t *testing.T, obs ...observation.Observation) *Service {
	t.Helper()
	store := memory.New()
	if err := store.InsertObservations(context.Background(), obs); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return New(store, nil)
}

func TestByTicker_EmptyIsNotAnError(t *testing.T) {
	svc := seededService(t)

	obs, err := svc.ByTicker(context.Background(), "btc_usd")
	if err != nil {
		t.Fatalf("by ticker: %v", err)
	}
	if obs == nil || len(obs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", obs)
	}
}

func TestByTicker_RequiresTicker(t *testing.T) {
	svc := seededService(t)

	if _, err := svc.ByTicker(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLatest_ReturnsMaxTimestamp(t *testing.T) {
	svc := seededService(t,
		observation.Observation{Ticker: "btc_usd", Price: 90000.0, Timestamp: 1700000000},
		observation.Observation{Ticker: "btc_usd", Price: 91000.0, Timestamp: 1700003600},
		observation.Observation{Ticker: "eth_usd", Price: 2100.0, Timestamp: 1700007200},
	)

	latest, err := svc.Latest(context.Background(), "btc_usd")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Price != 91000.0 || latest.Timestamp != 1700003600 {
		t.Fatalf("expected the 91000.0 row, got %#v", latest)
	}
}

func TestLatest_AbsenceIsNotFound(t *testing.T) {
	svc := seededService(t)

	if _, err := svc.Latest(context.Background(), "btc_usd"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected storage.ErrNotFound, got %v", err)
	}
}

func TestByDate_UTCDayBoundaries(t *testing.T) {
	// 1700000000 and 1700003600 fall on 2023-11-14 UTC; 1700090000 is the
	// next day.
	svc := seededService(t,
		observation.Observation{Ticker: "btc_usd", Price: 90000.0, Timestamp: 1700000000},
		observation.Observation{Ticker: "btc_usd", Price: 91000.0, Timestamp: 1700003600},
		observation.Observation{Ticker: "btc_usd", Price: 92000.0, Timestamp: 1700090000},
		observation.Observation{Ticker: "eth_usd", Price: 2100.0, Timestamp: 1700000500},
	)

	obs, err := svc.ByDate(context.Background(), "btc_usd", "2023-11-14")
	if err != nil {
		t.Fatalf("by date: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("expected 2 rows on 2023-11-14, got %#v", obs)
	}
	if obs[0].Timestamp != 1700000000 || obs[1].Timestamp != 1700003600 {
		t.Fatalf("expected rows sorted by timestamp, got %#v", obs)
	}
}

func TestByDate_BoundsInclusive(t *testing.T) {
	// 2023-11-14 UTC spans [1699920000, 1700006399].
	svc := seededService(t,
		observation.Observation{Ticker: "btc_usd", Price: 1, Timestamp: 1699920000},
		observation.Observation{Ticker: "btc_usd", Price: 2, Timestamp: 1700006399},
		observation.Observation{Ticker: "btc_usd", Price: 3, Timestamp: 1699919999},
		observation.Observation{Ticker: "btc_usd", Price: 4, Timestamp: 1700006400},
	)

	obs, err := svc.ByDate(context.Background(), "btc_usd", "2023-11-14")
	if err != nil {
		t.Fatalf("by date: %v", err)
	}
	if len(obs) != 2 || obs[0].Price != 1 || obs[1].Price != 2 {
		t.Fatalf("expected exactly the boundary rows, got %#v", obs)
	}
}

func TestByDate_MalformedDate(t *testing.T) {
	svc := seededService(t,
		observation.Observation{Ticker: "btc_usd", Price: 90000.0, Timestamp: 1700000000},
	)

	for _, date := range []string{"2024-13-40", "not-a-date", "2024/01/02", "2024-1-2", ""} {
		_, err := svc.ByDate(context.Background(), "btc_usd", date)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("date %q: expected ErrInvalidInput, got %v", date, err)
		}
		if errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("date %q: invalid input must not read as not-found", date)
		}
	}
}

func TestByDate_EmptyDayIsNotAnError(t *testing.T) {
	svc := seededService(t,
		observation.Observation{Ticker: "btc_usd", Price: 90000.0, Timestamp: 1700000000},
	)

	obs, err := svc.ByDate(context.Background(), "btc_usd", "2020-01-01")
	if err != nil {
		t.Fatalf("by date: %v", err)
	}
	if len(obs) != 0 {
		t.Fatalf("expected no rows, got %#v", obs)
	}
}
