package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/ariutta/BridgeDb/internal/config"
	"github.com/ariutta/BridgeDb/internal/logger"
	"github.com/ariutta/BridgeDb/internal/metrics"
	"github.com/ariutta/BridgeDb/internal/server/api"
	"github.com/ariutta/BridgeDb/internal/server/catalog"
	"github.com/ariutta/BridgeDb/internal/server/graph"
	"github.com/ariutta/BridgeDb/internal/server/resolve"
	"github.com/ariutta/BridgeDb/internal/server/search"
	"github.com/ariutta/BridgeDb/internal/server/stats"
)

// parseFlags returns the .env files named on the command line
func parseFlags(args []string, output io.Writer) ([]string, error) {
	fs := flag.NewFlagSet("idmap-server", flag.ContinueOnError)
	fs.SetOutput(output)
	envFile := fs.String("env", "", "path to a .env file (default ./.env if present)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *envFile == "" {
		return nil, nil
	}
	return []string{*envFile}, nil
}

func main() {
	files, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		boot := logger.New(logger.Config{})
		boot.Fatal().Err(err).Msg("loading configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// newServer opens the store and wires the HTTP server around it.
// The caller closes the returned store.
func newServer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*http.Server, graph.Store, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, nil, err
	}

	store, err := cfg.OpenStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("store", cfg.Store).Int("namespaces", len(reg.All())).Msg("store opened")

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg)

	cat := catalog.New(store, reg, logger.Component(log, "catalog"), m)
	aggregator := stats.New(cat)
	if overall, err := aggregator.Overall(ctx); err == nil {
		log.Info().Str("statistics", overall.String()).Msg("catalog ready")
	}

	apiServer := api.New(api.Config{
		Engine: resolve.NewLocal(store, reg,
			resolve.WithLogger(logger.Component(log, "resolve")),
			resolve.WithMetrics(m),
			resolve.WithTimeout(cfg.QueryTimeout)),
		Searcher: search.New(store, reg, logger.Component(log, "search"), m),
		Stats:    aggregator,
		Catalog:  cat,
		Registry: reg,
		Logger:   logger.Component(log, "api"),
		Metrics:  m,
		Gatherer: promReg,
	})

	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      apiServer.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.QueryTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}, store, nil
}

func run(cfg *config.Config, log zerolog.Logger) error {
	srv, store, err := newServer(context.Background(), cfg, log)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting idmap server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-quit:
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server exited")
	return nil
}
