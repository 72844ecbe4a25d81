package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/tickerd/tickerd/internal/app"
	"github.com/tickerd/tickerd/internal/app/config"
	"github.com/tickerd/tickerd/internal/app/httpapi"
	"github.com/tickerd/tickerd/internal/app/metrics"
	"github.com/tickerd/tickerd/internal/app/storage/postgres"
	"github.com/tickerd/tickerd/internal/platform/migrations"
	"github.com/tickerd/tickerd/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New("tickerd", logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("tickerd exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	stores := app.Stores{}

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return err
		}
		if err := migrations.Apply(ctx, db); err != nil {
			return err
		}
		stores.Observations = postgres.New(db)
		log.Info("using postgres observation store")
	} else {
		log.Warn("DATABASE_URL not set; using in-memory observation store")
	}

	application, err := app.New(cfg, stores, log)
	if err != nil {
		return err
	}

	if err := application.Start(ctx); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", httpapi.NewHandler(application))

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: metrics.InstrumentHandler(mux),
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		shutdown(application, server, log)
		return err
	}

	shutdown(application, server, log)
	return nil
}

func shutdown(application *app.Application, server *http.Server, log *logger.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application shutdown error")
	}
}
