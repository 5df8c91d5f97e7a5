package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/remitdesk/internal/adapter/http"
	"github.com/iho/remitdesk/internal/adapter/http/handler"
	"github.com/iho/remitdesk/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/remitdesk/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/remitdesk/internal/adapter/repository/redis"
	"github.com/iho/remitdesk/internal/infrastructure/auth"
	"github.com/iho/remitdesk/internal/infrastructure/config"
	"github.com/iho/remitdesk/internal/infrastructure/eventpublisher"
	"github.com/iho/remitdesk/internal/infrastructure/logger"
	"github.com/iho/remitdesk/internal/infrastructure/metrics"
	"github.com/iho/remitdesk/internal/infrastructure/postgres"
	"github.com/iho/remitdesk/internal/infrastructure/redis"
	"github.com/iho/remitdesk/internal/usecase"
)

const (
	limiterCleanupInterval = time.Minute
	limiterMaxIdle         = 10 * time.Minute
	eventStreamMaxLen      = 100000
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(loggerConfig(cfg))
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("server failed")
	}
}

func loggerConfig(cfg *config.Config) logger.Config {
	return logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}
}

func run(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) error {
	// Apply migrations
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, appLogger); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, redis.ClientConfig{
		URL:          cfg.RedisURL,
		PoolSize:     cfg.RedisPoolSize,
		DialTimeout:  cfg.RedisDialTimeout,
		ReadTimeout:  cfg.RedisReadTimeout,
		WriteTimeout: cfg.RedisWriteTimeout,
	})
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	serviceRepo := postgresRepo.NewServiceRepository(pool)
	commissionRepo := postgresRepo.NewCommissionRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	groupRepo := postgresRepo.NewGroupRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	scheduleCache := redisRepo.NewScheduleCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	resolver := usecase.NewRateScheduleResolver(commissionRepo, scheduleCache, cfg.ScheduleCacheTTL, appLogger, m)
	serviceUC := usecase.NewServiceUseCase(txManager, serviceRepo, commissionRepo, outboxRepo, idGen, resolver)
	quoteUC := usecase.NewQuoteUseCase(serviceUC, resolver, m)
	transactionUC := usecase.NewTransactionUseCase(txManager, transactionRepo, groupRepo, outboxRepo, idGen, quoteUC, m).
		WithRetrier(postgresRepo.NewRetrier(appLogger))
	groupUC := usecase.NewGroupUseCase(txManager, groupRepo, transactionRepo, outboxRepo, idGen, appLogger, m)

	verifier, err := tokenVerifier(cfg)
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ServiceHandler:     handler.NewServiceHandler(serviceUC),
		QuoteHandler:       handler.NewQuoteHandler(quoteUC),
		TransactionHandler: handler.NewTransactionHandler(transactionUC),
		GroupHandler:       handler.NewGroupHandler(groupUC),
		HealthHandler:      handler.NewHealthHandler(postgresChecker(pool), redisChecker(redisClient)),
		Logger:             appLogger,
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        limiter,
		TokenVerifier:      verifier,
	})

	// Background workers
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewStreamPublisher(redisClient, eventpublisher.DefaultStream, eventStreamMaxLen),
		Logger:     appLogger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})
	go func() {
		if err := publisher.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error().Err(err).Msg("event publisher stopped")
		}
	}()
	go cleanupLimiters(workerCtx, limiter, appLogger)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Bool("auth", verifier != nil).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down server...")
	cancelWorkers()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	appLogger.Info().Msg("server stopped")
	return nil
}

// tokenVerifier returns nil when authentication is disabled.
func tokenVerifier(cfg *config.Config) (middleware.TokenVerifier, error) {
	if !cfg.AuthEnabled {
		return nil, nil
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("AUTH_ENABLED requires JWT_SECRET")
	}
	return auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration), nil
}

func postgresChecker(pool *pgxpool.Pool) handler.Checker {
	return handler.CheckerFunc(pool.Ping)
}

func redisChecker(client *goredis.Client) handler.Checker {
	return handler.CheckerFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

func cleanupLimiters(ctx context.Context, limiter *middleware.RateLimiter, appLogger zerolog.Logger) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.CleanupLimiters(limiterMaxIdle); n > 0 {
				appLogger.Debug().Int("removed", n).Msg("evicted idle rate limiters")
			}
		}
	}
}
