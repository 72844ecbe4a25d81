package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	app "github.com/tickerd/tickerd/internal/app"
	"github.com/tickerd/tickerd/internal/app/services/prices"
	"github.com/tickerd/tickerd/internal/app/storage"
)

// handler bundles HTTP endpoints for the query service.
type handler struct {
	app *app.Application
}

// NewHandler returns a mux exposing the read API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/prices", h.pricesByTicker)
	mux.HandleFunc("/prices/latest", h.latestPrice)
	mux.HandleFunc("/prices/by-date", h.pricesByDate)
	mux.HandleFunc("/healthz", h.health)
	return mux
}

func (h *handler) pricesByTicker(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	obs, err := h.app.Prices.ByTicker(r.Context(), r.URL.Query().Get("ticker"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, obs)
}

func (h *handler) latestPrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	obs, err := h.app.Prices.Latest(r.Context(), r.URL.Query().Get("ticker"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, obs)
}

func (h *handler) pricesByDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	obs, err := h.app.Prices.ByDate(r.Context(), query.Get("ticker"), query.Get("date"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, obs)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor distinguishes bad requests from empty lookups; the two are never
// collapsed into one another.
func statusFor(err error) int {
	switch {
	case errors.Is(err, prices.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": fmt.Sprintf("%v", err)})
}
