package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/tickerd/tickerd/internal/app/domain/observation"
	"github.com/tickerd/tickerd/internal/app/metrics"
	"github.com/tickerd/tickerd/internal/app/storage"
	"github.com/tickerd/tickerd/internal/app/system"
	"github.com/tickerd/tickerd/pkg/logger"
)

var _ system.Service = (*Scheduler)(nil)

// DefaultSchedule fires one ingestion cycle per minute.
const DefaultSchedule = "@every 1m"

const cycleTimeout = 30 * time.Second

// CycleReport summarises one ingestion cycle.
type CycleReport struct {
	CycleID  string
	Inserted int
	Failed   int
	Skipped  bool
	Err      error
}

// Scheduler runs ingestion cycles on a cron schedule. Each cycle fetches all
// tracked tickers concurrently, isolates per-ticker failures, and commits the
// successful observations in a single store transaction. The scheduler never
// retries a missed or failed cycle; the next one proceeds independently.
type Scheduler struct {
	store    storage.ObservationStore
	fetcher  Fetcher
	tickers  []string
	schedule string
	log      *logger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool

	// inFlight guards against overlapping cycles when a trigger fires while
	// the previous cycle is still running.
	inFlightMu sync.Mutex
	inFlight   bool
}

// NewScheduler creates a scheduler for the given ticker set. An empty
// schedule falls back to DefaultSchedule; schedules use the cron descriptor
// syntax, e.g. "@every 1m".
func NewScheduler(store storage.ObservationStore, fetcher Fetcher, tickers []string, schedule string, log *logger.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if log == nil {
		log = logger.NewDefault("ingest-scheduler")
	}
	return &Scheduler{
		store:    store,
		fetcher:  fetcher,
		tickers:  tickers,
		schedule: schedule,
		log:      log,
	}
}

func (s *Scheduler) Name() string { return "ingest-scheduler" }

// Start begins the cron loop. The cron clock runs in UTC.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(s.schedule, func() {
		s.RunCycle(runCtx)
	}); err != nil {
		cancel()
		return fmt.Errorf("invalid ingest schedule %q: %w", s.schedule, err)
	}

	s.cron = c
	s.cancel = cancel
	s.running = true
	c.Start()

	s.log.WithField("schedule", s.schedule).
		WithField("tickers", len(s.tickers)).
		Info("ingest scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running cycle to drain, bounded by
// the caller's context.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	c := s.cron
	cancel := s.cancel
	s.running = false
	s.cron = nil
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	s.log.Info("ingest scheduler stopped")
	return nil
}

// RunCycle executes one ingestion cycle. It is exported so an external clock
// can drive ingestion instead of the built-in cron loop; invocations that
// overlap a running cycle are skipped.
func (s *Scheduler) RunCycle(ctx context.Context) CycleReport {
	s.inFlightMu.Lock()
	if s.inFlight {
		s.inFlightMu.Unlock()
		s.log.Warn("ingestion cycle still running, skipping trigger")
		return CycleReport{Skipped: true}
	}
	s.inFlight = true
	s.inFlightMu.Unlock()
	defer func() {
		s.inFlightMu.Lock()
		s.inFlight = false
		s.inFlightMu.Unlock()
	}()

	report := CycleReport{CycleID: uuid.NewString()}
	log := s.log.WithField("cycle_id", report.CycleID)
	start := time.Now()

	ctx, cancelCycle := context.WithTimeout(ctx, cycleTimeout)
	defer cancelCycle()

	results := s.fetchAll(ctx)

	batch := make([]observation.Observation, 0, len(results))
	for _, res := range results {
		metrics.RecordFetch(res.ticker, fetchStatus(res.err))
		if res.err != nil {
			report.Failed++
			log.WithError(res.err).
				WithField("ticker", res.ticker).
				Warn("price fetch failed")
			continue
		}
		batch = append(batch, res.obs)
	}

	if len(batch) > 0 {
		if err := s.store.InsertObservations(ctx, batch); err != nil {
			report.Err = err
			log.WithError(err).Error("cycle insert failed, batch rolled back")
			metrics.RecordCycle(time.Since(start), 0, false)
			return report
		}
		report.Inserted = len(batch)
	}

	metrics.RecordCycle(time.Since(start), report.Inserted, true)
	log.WithField("inserted", report.Inserted).
		WithField("failed", report.Failed).
		Info("ingestion cycle complete")
	return report
}

type fetchResult struct {
	ticker string
	obs    observation.Observation
	err    error
}

// fetchAll fetches every tracked ticker concurrently. Each result is captured
// independently so one failure never aborts the rest of the batch.
func (s *Scheduler) fetchAll(ctx context.Context) []fetchResult {
	results := make([]fetchResult, len(s.tickers))

	var wg sync.WaitGroup
	for i, ticker := range s.tickers {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			obs, err := s.fetcher.Fetch(ctx, ticker)
			results[i] = fetchResult{ticker: ticker, obs: obs, err: err}
		}(i, ticker)
	}
	wg.Wait()

	return results
}
