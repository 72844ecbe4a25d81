package config

import (
	"os"
	"strings"
)

// Config carries all externally supplied process configuration. Values come
// from the environment; main loads an optional .env file first.
type Config struct {
	// HTTPAddr is the listen address of the query API.
	HTTPAddr string
	// DatabaseURL is the postgres connection string. When empty the process
	// runs against the in-memory store.
	DatabaseURL string
	// PriceSourceURL is the index price endpoint queried each cycle.
	PriceSourceURL string
	// Tickers is the fixed set of tracked tickers.
	Tickers []string
	// FetchSchedule is a cron descriptor, e.g. "@every 1m".
	FetchSchedule string
	LogLevel      string
	LogFormat     string
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() Config {
	return Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		PriceSourceURL: os.Getenv("PRICE_SOURCE_URL"),
		Tickers:        splitList(getenv("TICKERS", "btc_usd,eth_usd")),
		FetchSchedule:  getenv("FETCH_SCHEDULE", "@every 1m"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		LogFormat:      os.Getenv("LOG_FORMAT"),
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
