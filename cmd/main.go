package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/standings-engine/config"
	"github.com/Dosada05/standings-engine/db"
	"github.com/Dosada05/standings-engine/handlers"
	"github.com/Dosada05/standings-engine/live"
	"github.com/Dosada05/standings-engine/payouts"
	"github.com/Dosada05/standings-engine/repositories"
	api "github.com/Dosada05/standings-engine/routes"
	"github.com/Dosada05/standings-engine/services"
	"github.com/Dosada05/standings-engine/storage"
)

const (
	shutdownTimeout = 15 * time.Second
	requestTimeout  = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("application exited")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.Bool("r2_enabled", cfg.R2.Enabled()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(cfg.DatabaseURL, cfg.DBConnectTimeout, db.DefaultPoolConfig())
	if err != nil {
		return err
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(ctx, dbConn, logger); err != nil {
		return err
	}

	var archiver services.StandingsArchiver
	if cfg.R2.Enabled() {
		store, err := storage.NewCloudflareR2Store(ctx, cfg.R2)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 store: %w", err)
		}
		archiver = storage.NewStandingsArchive(store)
		logger.Info("standings archive enabled", slog.String("bucket", cfg.R2.BucketName))
	}

	hub := live.NewHub(logger)
	go hub.Run(ctx)

	suggester, err := payouts.NewTableSuggester(cfg.PayoutTable)
	if err != nil {
		return fmt.Errorf("invalid payout table: %w", err)
	}

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)

	standingsService := services.NewStandingsService(
		dbConn,
		tournamentRepo,
		matchRepo,
		registrationRepo,
		hub,
		archiver,
		logger,
		services.StandingsServiceConfig{
			SweepConcurrency: cfg.SweepConcurrency,
			SweepBatchSize:   cfg.SweepBatchSize,
		},
	)
	payoutService := services.NewPayoutService(
		dbConn,
		tournamentRepo,
		registrationRepo,
		payouts.NewDistributor(suggester),
		hub,
		archiver,
		logger,
	)

	if cfg.SweepInterval > 0 {
		go runSweeper(ctx, standingsService, cfg.SweepInterval, logger)
	} else {
		logger.Info("standings sweeper disabled")
	}

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Standings: handlers.NewStandingsHandler(standingsService),
		Payouts:   handlers.NewPayoutHandler(payoutService),
		WebSocket: handlers.NewWebSocketHandler(hub, cfg.CORSAllowedOrigins, logger),
		Health:    handlers.NewHealthHandler(dbConn),
	}, api.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout: requestTimeout,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
	if err := server.Shutdown(shutdownCtx); err != nil {
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("failed to force close server", slog.Any("error", closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server shutdown complete")
	return nil
}

// runSweeper recomputes stale standings once at startup and then on every tick.
func runSweeper(ctx context.Context, svc services.StandingsService, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("standings sweeper started", slog.Duration("interval", interval))

	sweep := func() {
		report, err := svc.RecomputeStale(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("standings sweep failed", slog.Any("error", err))
			}
			return
		}
		if report.Attempted > 0 {
			logger.Info("standings sweep finished",
				slog.Int("attempted", report.Attempted),
				slog.Int("recomputed", report.Recomputed),
				slog.Int("failed", report.Failed))
		}
	}

	sweep()
	for {
		select {
		case <-ctx.Done():
			logger.Info("standings sweeper stopped")
			return
		case <-ticker.C:
			sweep()
		}
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
