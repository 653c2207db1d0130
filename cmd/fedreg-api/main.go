package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/edvin/fedreg/internal/api"
	mw "github.com/edvin/fedreg/internal/api/middleware"
	"github.com/edvin/fedreg/internal/api/request"
	"github.com/edvin/fedreg/internal/config"
	"github.com/edvin/fedreg/internal/core"
	"github.com/edvin/fedreg/internal/db"
	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/logging"
	"github.com/edvin/fedreg/internal/metrics"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "migrate" {
		migrate(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "", "Migration files directory (defaults to the embedded migrations)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("fedreg-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewRegistry(reg)

	var store graph.Store
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		mem, err := graph.NewMemStore()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create in-memory store")
		}
		store = mem
	default:
		if *migrateFlag {
			logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
			if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
				logger.Fatal().Err(err).Msg("migration failed")
			}
		}

		pool, err := db.NewPool(ctx, cfg.DatabaseURL, 0)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to registry database")
		}
		defer pool.Close()
		metrics.RegisterPgxPoolMetrics(reg, pool)
		store = graph.NewPGStore(pool)
	}
	store = m.Instrument(store)

	services := core.NewServices(store, request.Validator(), m.ObserveSync)

	auth, err := mw.NewAuthenticator(ctx, cfg.TrustedIssuers, cfg.OIDCAudience, cfg.WriteSubjects)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up token verification")
	}
	if len(cfg.TrustedIssuers) == 0 {
		logger.Warn().Msg("no trusted issuers configured, the registry is read-only")
	}

	srv := api.NewServer(logger, services, auth, reg, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Str("store", cfg.StoreDriver).Msg("starting federation registry API")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	var metricsServer *http.Server
	if cfg.MetricsListenAddr != "" {
		metricsServer = metrics.NewServer(cfg.MetricsListenAddr, reg)
		go func() {
			logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	if metricsServer != nil {
		metricsServer.Shutdown(shutdownCtx)
	}
}

func migrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dir := fs.String("dir", "", "Migration files directory (defaults to the embedded migrations)")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate("fedreg-migrate"); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := db.RunMigrations(cfg.DatabaseURL, *dir); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Migrations applied.")
}
