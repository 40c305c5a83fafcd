package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pv_forecast/internal/config"
	"pv_forecast/internal/forecast"
	"pv_forecast/internal/geocode"
	"pv_forecast/internal/handlers"
	"pv_forecast/internal/logger"
	"pv_forecast/internal/repository"
	"pv_forecast/internal/repository/db"
	"pv_forecast/internal/server"
	"pv_forecast/internal/service"
)

const (
	geocodeTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
	// headroom for aggregation and encoding after the upstream call returns
	responseSlack = 15 * time.Second
)

func main() {
	// load configs/config.yml, .env and PV_* overrides
	cfg, err := config.Load("configs", ".")
	if err != nil {
		logger.Get(logger.InfoLevel, logger.ConsoleFormat).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	// open DB
	sqlDB, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// outbound collaborators
	submitter := forecast.NewClient(cfg.Forecast.BaseURL, &http.Client{Timeout: cfg.Forecast.Timeout}, log)
	searcher, err := geocode.New(cfg.Geocoder, &http.Client{Timeout: geocodeTimeout})
	if err != nil {
		log.Fatalw("failed to init geocoder", "err", err)
	}

	// wire dependencies
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos := repository.NewRepository(sqlDB)
	services, err := service.NewService(ctx, repos, service.Deps{
		Submitter: submitter,
		Searcher:  searcher,
		Config:    cfg,
		Logger:    log,
	})
	if err != nil {
		log.Fatalw("failed to init services", "err", err)
	}
	apiHandler := handlers.NewHandler(services, log)

	// background event retention
	if err := services.Retention.Start(); err != nil {
		log.Fatalw("failed to start event retention", "err", err)
	}

	log.Infow("site restored", "site", services.State().Confirmed.String(), "forecast_url", cfg.Forecast.BaseURL)

	// start HTTP server
	srv := &server.Server{WriteTimeout: cfg.Forecast.Timeout + responseSlack}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, services.Retention, log)
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	dbPath := cfg.DB.Path
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		dbPath = "app.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil && err != http.ErrServerClosed {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, retention service.Retention, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background jobs
	retention.Stop()
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
