package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cimillas/hangout-planner/internal/app"
	"github.com/cimillas/hangout-planner/internal/clock"
	"github.com/cimillas/hangout-planner/internal/config"
	"github.com/cimillas/hangout-planner/internal/storage/postgres"
	"github.com/cimillas/hangout-planner/internal/storage/sqlite"
	transporthttp "github.com/cimillas/hangout-planner/internal/transport/http"
	"github.com/cimillas/hangout-planner/migrations"
)

const defaultConfigFile = "config.yaml"

type store interface {
	app.EventStore
	transporthttp.Pinger
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envPath, envErr := config.LoadDotEnv()

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = defaultConfigFile
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.Log, os.Stdout)
	if err != nil {
		return err
	}
	switch {
	case envErr != nil:
		logger.Warn().Err(envErr).Msg("failed to load .env")
	case envPath != "":
		logger.Info().Str("path", envPath).Msg("loaded env file")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, closeStore, err := openStore(startupCtx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := app.NewPlannerService(st, clock.NewSystem(),
		app.WithMaxRangeDays(cfg.Planner.MaxRangeDays),
		app.WithMaxIDAttempts(cfg.Planner.MaxIDAttempts),
	)

	mux := transporthttp.NewRouter(svc, st)
	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, mux), logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info().Str("addr", server.Addr).Str("store", cfg.Store.Driver).Msg("api listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	case <-stopCtx.Done():
		logger.Info().Msg("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newLogger(cfg config.LogConfig, out io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "hangout-api").Logger(), nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (store, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		st, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("using sqlite store")
		return st, func() { _ = st.Close() }, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to db: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("db ping: %w", err)
		}
		applied, err := migrations.Apply(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info().Strs("applied", applied).Msg("migrations up to date")
		return postgres.NewEventRepository(pool), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
