package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/tickerd/tickerd/internal/app/domain/observation"
	"github.com/tickerd/tickerd/pkg/logger"
)

// DefaultEndpoint is the public Deribit index price endpoint. It requires no
// authentication.
const DefaultEndpoint = "https://www.deribit.com/api/v2/public/get_index_price"

const fetchTimeout = 10 * time.Second

// IndexPriceFetcher fetches reference prices from a Deribit-style index price
// endpoint. Successful observations are stamped with local wall-clock time:
// the endpoint does not reliably embed its own timestamp, so the moment of
// capture is authoritative.
type IndexPriceFetcher struct {
	client   *http.Client
	endpoint string
	log      *logger.Logger
	now      func() time.Time
}

var _ Fetcher = (*IndexPriceFetcher)(nil)

// NewIndexPriceFetcher creates a fetcher against the given endpoint. A nil
// client falls back to a plain http.Client; the per-request timeout is
// enforced through the request context either way.
func NewIndexPriceFetcher(client *http.Client, endpoint string, log *logger.Logger) (*IndexPriceFetcher, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid price source endpoint: %w", err)
	}
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = logger.NewDefault("ingest-fetcher")
	}
	return &IndexPriceFetcher{
		client:   client,
		endpoint: endpoint,
		log:      log,
		now:      time.Now,
	}, nil
}

type indexPriceResponse struct {
	Result *struct {
		IndexPrice *float64 `json:"index_price"`
	} `json:"result"`
}

// Fetch requests the current index price for ticker. It performs no retries;
// retry policy belongs to the scheduler.
func (f *IndexPriceFetcher) Fetch(ctx context.Context, ticker string) (observation.Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return observation.Observation{}, &FetchError{Kind: FetchNetwork, Ticker: ticker, Err: err}
	}
	q := req.URL.Query()
	q.Set("index_name", ticker)
	req.URL.RawQuery = q.Encode()

	resp, err := f.client.Do(req)
	if err != nil {
		return observation.Observation{}, &FetchError{Kind: classifyTransport(err), Ticker: ticker, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return observation.Observation{}, &FetchError{Kind: classifyTransport(err), Ticker: ticker, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return observation.Observation{}, &FetchError{
			Kind:   FetchNetwork,
			Ticker: ticker,
			Body:   string(body),
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var parsed indexPriceResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Result == nil || parsed.Result.IndexPrice == nil {
		if err == nil {
			err = errors.New("missing result.index_price")
		}
		return observation.Observation{}, &FetchError{
			Kind:   FetchUnexpectedFormat,
			Ticker: ticker,
			Body:   string(body),
			Err:    err,
		}
	}

	return observation.Observation{
		Ticker:    ticker,
		Price:     *parsed.Result.IndexPrice,
		Timestamp: f.now().Unix(),
	}, nil
}

func classifyTransport(err error) FetchKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FetchTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FetchTimeout
	}
	return FetchNetwork
}
