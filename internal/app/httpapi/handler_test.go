package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	app "github.com/tickerd/tickerd/internal/app"
	"github.com/tickerd/tickerd/internal/app/config"
	"github.com/tickerd/tickerd/internal/app/domain/observation"
	"github.com/tickerd/tickerd/internal/app/storage/memory"
)

func newTestHandler(t *testing.T, obs ...observation.Observation) http.Handler {
	t.Helper()

	store := memory.New()
	if err := store.InsertObservations(context.Background(), obs); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	application, err := app.New(config.Config{}, app.Stores{Observations: store}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	return NewHandler(application)
}

func doGet(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))
	return resp
}

func TestPricesByTicker(t *testing.T) {
	handler := newTestHandler(t,
		observation.Observation{Ticker: "btc_usd", Price: 90000.0, Timestamp: 1700000000},
		observation.Observation{Ticker: "btc_usd", Price: 91000.0, Timestamp: 1700003600},
		observation.Observation{Ticker: "eth_usd", Price: 2100.0, Timestamp: 1700000000},
	)

	resp := doGet(t, handler, "/prices?ticker=btc_usd")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var rows []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %v", rows)
	}
	if rows[0]["ticker"] != "btc_usd" || rows[0]["price"] != 90000.0 {
		t.Fatalf("unexpected row shape: %v", rows[0])
	}
}

func TestPricesByTicker_EmptyArray(t *testing.T) {
	handler := newTestHandler(t)

	resp := doGet(t, handler, "/prices?ticker=btc_usd")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown ticker, got %d", resp.Code)
	}
	if got := resp.Body.String(); got != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", got)
	}
}

func TestPricesByTicker_MissingTicker(t *testing.T) {
	handler := newTestHandler(t)

	resp := doGet(t, handler, "/prices")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestLatestPrice(t *testing.T) {
	handler := newTestHandler(t,
		observation.Observation{Ticker: "btc_usd", Price: 90000.0, Timestamp: 1700000000},
		observation.Observation{Ticker: "btc_usd", Price: 91000.0, Timestamp: 1700003600},
	)

	resp := doGet(t, handler, "/prices/latest?ticker=btc_usd")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var row map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if row["price"] != 91000.0 || row["timestamp"] != float64(1700003600) {
		t.Fatalf("expected latest row, got %v", row)
	}
}

func TestLatestPrice_NotFound(t *testing.T) {
	handler := newTestHandler(t)

	resp := doGet(t, handler, "/prices/latest?ticker=btc_usd")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("expected error message in body, got %v", body)
	}
}

func TestPricesByDate(t *testing.T) {
	handler := newTestHandler(t,
		observation.Observation{Ticker: "btc_usd", Price: 90000.0, Timestamp: 1700000000},
		observation.Observation{Ticker: "btc_usd", Price: 91000.0, Timestamp: 1700003600},
		observation.Observation{Ticker: "btc_usd", Price: 92000.0, Timestamp: 1700090000},
	)

	resp := doGet(t, handler, "/prices/by-date?ticker=btc_usd&date=2023-11-14")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var rows []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows on 2023-11-14, got %v", rows)
	}
}

func TestPricesByDate_MalformedDate(t *testing.T) {
	handler := newTestHandler(t)

	for _, date := range []string{"2024-13-40", "not-a-date"} {
		resp := doGet(t, handler, "/prices/by-date?ticker=btc_usd&date="+date)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("date %q: expected 400, got %d", date, resp.Code)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/prices?ticker=btc_usd", nil))
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestHandler(t)

	resp := doGet(t, handler, "/healthz")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
