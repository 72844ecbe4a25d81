package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tickerd/tickerd/internal/app/config"
	"github.com/tickerd/tickerd/internal/app/services/ingest"
	"github.com/tickerd/tickerd/internal/app/services/prices"
	"github.com/tickerd/tickerd/internal/app/storage"
	"github.com/tickerd/tickerd/internal/app/storage/memory"
	"github.com/tickerd/tickerd/internal/app/system"
	"github.com/tickerd/tickerd/pkg/logger"
)

// Stores encapsulates persistence dependencies. A nil store defaults to the
// in-memory implementation.
type Stores struct {
	Observations storage.ObservationStore
}

// Application ties the ingestion and query services together and manages
// their lifecycle. All handles are constructed explicitly here; there is no
// process-wide store or scheduler state.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Prices    *prices.Service
	Scheduler *ingest.Scheduler
}

// New builds a fully initialised application with the provided stores.
func New(cfg config.Config, stores Stores, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if stores.Observations == nil {
		stores.Observations = memory.New()
	}

	manager := system.NewManager()

	pricesService := prices.New(stores.Observations, log)
	if err := manager.Register(system.NoopService{ServiceName: "prices"}); err != nil {
		return nil, fmt.Errorf("register prices service: %w", err)
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	fetcher, err := ingest.NewIndexPriceFetcher(httpClient, cfg.PriceSourceURL, log)
	if err != nil {
		return nil, fmt.Errorf("configure price fetcher: %w", err)
	}

	scheduler := ingest.NewScheduler(stores.Observations, fetcher, cfg.Tickers, cfg.FetchSchedule, log)
	if err := manager.Register(scheduler); err != nil {
		return nil, fmt.Errorf("register %s: %w", scheduler.Name(), err)
	}

	return &Application{
		manager:   manager,
		log:       log,
		Prices:    pricesService,
		Scheduler: scheduler,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
