// Command hausmated wires the hausmate core: the job lifecycle engine, the
// matching orchestrator, and the billing service, backed by PostgreSQL and
// Redis. It is the composition root the service surfaces embed.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/hausmate/hausmate-core/config"
	"github.com/hausmate/hausmate-core/internal/adapters/scorer"
	"github.com/hausmate/hausmate-core/internal/core"
	"github.com/hausmate/hausmate-core/internal/data"
	"github.com/hausmate/hausmate-core/internal/domain/payroll"
	"github.com/hausmate/hausmate-core/internal/service"
	"github.com/hausmate/hausmate-core/internal/service/notifier"
)

const healthProbeInterval = 30 * time.Second

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnContext(ctx, "skipping .env", "error", err)
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()

	logger.InfoContext(ctx, "starting hausmated",
		"db_host", cfg.Postgres.Host,
		"db_name", cfg.Postgres.Name,
		"redis_enabled", cfg.Redis.Enabled,
		"dev", cfg.IsDev,
	)

	db, err := sql.Open("pgx", cfg.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var cache core.CacheRepository
	if cfg.Redis.Enabled {
		redisClient := data.NewRedisClient(data.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
		cache = data.NewRedisCacheRepo(redisClient)
		if err := cache.Health(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
	}

	deps, err := buildServices(cfg, db, cache, logger)
	if err != nil {
		return err
	}

	return runUntilShutdown(ctx, logger, deps, cache)
}

// services bundles the wired core for the runtime loops and any embedding
// surface.
type services struct {
	Lifecycle  *service.LifecycleService
	Matching   *service.MatchingService
	Billing    *service.BillingService
	Workers    *service.WorkerService
	Dispatcher *notifier.Dispatcher
}

func buildServices(cfg config.AppConfig, db *sql.DB, cache core.CacheRepository, logger *slog.Logger) (*services, error) {
	jobRepo := data.NewJobRepo(db, data.JobRepoConfig{Logger: logger})
	workerRepo := data.NewWorkerRepo(db)
	notificationRepo := data.NewNotificationRepo(db)

	dispatcher := notifier.NewDispatcher(notifier.Options{
		Logger:  logger.With("component", "notifier"),
		Timeout: cfg.Notifier.DispatchTimeout,
		Sinks: []notifier.SinkRegistration{
			{Name: "inbox", Sink: notificationRepo},
		},
	})

	rates := core.NewRateTableCache(core.RateTableCacheOptions{
		Source: core.StaticRateSource(payroll.RateTable{
			VATRate:         cfg.Payroll.VATRate,
			InsuranceRate:   cfg.Payroll.InsuranceRate,
			PensionRate:     cfg.Payroll.PensionRate,
			PlatformFeeRate: cfg.Payroll.PlatformFeeRate,
		}),
		Config: core.RateTableCacheConfig{TTL: cfg.Payroll.RateTTL},
	})

	lifecycle, err := service.NewLifecycleService(service.LifecycleOptions{
		Jobs:    jobRepo,
		Workers: workerRepo,
		Events:  dispatcher,
		Rates:   rates,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create lifecycle service: %w", err)
	}

	scoringClient, err := scorer.NewClient(scorer.Config{
		BaseURL:                 cfg.Scorer.BaseURL,
		Timeout:                 cfg.Scorer.Timeout,
		Retries:                 cfg.Scorer.Retries,
		Backoff:                 cfg.Scorer.Backoff,
		CircuitFailureThreshold: cfg.Scorer.CircuitFailureThreshold,
		CircuitReset:            cfg.Scorer.CircuitReset,
		ResultExpr:              cfg.Scorer.ResultExpr,
	}, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("create scoring client: %w", err)
	}

	matching, err := service.NewMatchingService(service.MatchingOptions{
		Jobs:      jobRepo,
		Workers:   workerRepo,
		Scorer:    scoringClient,
		Lifecycle: lifecycle,
		Cache:     cache,
		CacheTTL:  cfg.Matching.CandidateTTL,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create matching service: %w", err)
	}

	billing, err := service.NewBillingService(service.BillingOptions{
		Jobs:   jobRepo,
		Rates:  rates,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create billing service: %w", err)
	}

	workers, err := service.NewWorkerService(service.WorkerOptions{
		Workers: workerRepo,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create worker service: %w", err)
	}

	return &services{
		Lifecycle:  lifecycle,
		Matching:   matching,
		Billing:    billing,
		Workers:    workers,
		Dispatcher: dispatcher,
	}, nil
}

func runUntilShutdown(ctx context.Context, logger *slog.Logger, deps *services, cache core.CacheRepository) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return healthLoop(gctx, logger, deps, cache)
	})

	logger.InfoContext(ctx, "hausmated ready")
	err := g.Wait()

	// let in-flight notification deliveries drain before exit
	deps.Dispatcher.Wait()
	logger.InfoContext(ctx, "hausmated stopped")

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// healthLoop periodically logs job counts and cache health so operators see a
// heartbeat in the logs.
func healthLoop(ctx context.Context, logger *slog.Logger, deps *services, cache core.CacheRepository) error {
	ticker := time.NewTicker(healthProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			stats, err := deps.Lifecycle.JobStats(ctx)
			if err != nil {
				logger.WarnContext(ctx, "stats probe failed", "error", err)
				continue
			}
			attrs := []any{
				"pending", stats.Pending,
				"open", stats.Open,
				"assigned", stats.Assigned,
			}
			if cache != nil {
				attrs = append(attrs, "cache_healthy", cache.Health(ctx) == nil)
			}
			logger.InfoContext(ctx, "heartbeat", attrs...)
		}
	}
}
