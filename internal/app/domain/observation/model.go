package observation

// Observation is one recorded reference price for a ticker. Timestamp is the
// UNIX second at which this process captured the value; the source's own time
// field is deliberately ignored because the index price endpoint does not
// reliably provide one.
type Observation struct {
	ID        int64   `json:"-"`
	Ticker    string  `json:"ticker"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}
