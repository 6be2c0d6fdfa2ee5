package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/okian/skillswap/internal/adapters/http/api"
	"github.com/okian/skillswap/internal/adapters/mq/worker"
	"github.com/okian/skillswap/internal/adapters/redis"
	"github.com/okian/skillswap/internal/adapters/repository"
	app "github.com/okian/skillswap/internal/app"
	"github.com/okian/skillswap/internal/config"
	"github.com/okian/skillswap/internal/seed"
	"github.com/okian/skillswap/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 60 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
	redisLockPrefix        = "skillswap:"
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var rdb *goredis.Client
	if cfg.RedisEnabled {
		rcfg := redis.DefaultConfig()
		rcfg.Addr, rcfg.Password, rcfg.DB = cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB
		if rdb, err = redis.NewClient(ctx, rcfg); err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		log.Info(ctx, "connected to redis", logger.String("addr", cfg.RedisAddr))
	}

	svc := app.New(serviceOptions(cfg, store, rdb, log)...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		svc.Stop(sctx)
	}()

	sched, err := app.NewScheduler(svc, cfg.BatchInterval(), cfg.RetentionInterval(), log.Named("scheduler"))
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Warn(ctx, "scheduler stop failed", logger.Error(err))
		}
	}()

	go startServiceMetricsUpdater(ctx, svc)

	apiServer := api.NewServer(svc, svc,
		api.WithRateLimit(cfg.RateLimitPerMinute),
		api.WithLogger(log.Named("http")),
	)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openStore returns the configured store and its release function.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (app.Store, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		pg, err := repository.NewPostgres(ctx, cfg.DatabaseURL,
			repository.WithMaxConns(int32(cfg.DBMaxConns)),
			repository.WithQueryTimeout(cfg.DBQueryTimeout()),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		log.Info(ctx, "using postgres store")
		return pg, pg.Close, nil
	default:
		mem := repository.NewMemory()
		if cfg.SeedPeople > 0 {
			people := seed.Generate(seed.Config{People: cfg.SeedPeople, Seed: uint64(time.Now().UnixNano())})
			if _, err := seed.Load(ctx, mem, people, 0, log.Named("seed")); err != nil {
				return nil, nil, err
			}
		}
		log.Info(ctx, "using memory store", logger.Int("people", mem.Count()))
		return mem, func() {}, nil
	}
}

func serviceOptions(cfg *config.Config, store app.Store, rdb *goredis.Client, log logger.Logger) []app.Option {
	opts := []app.Option{
		app.WithLogger(log),
		app.WithStore(store),
		app.WithWeights(cfg.Weights()),
		app.WithResponseWindow(cfg.ResponseWindow()),
		app.WithPoolLimit(cfg.CandidatePoolLimit),
		app.WithLimits(cfg.DefaultLimit, cfg.MaxLimit),
		app.WithRecordViews(cfg.RecordViews),
		app.WithBatchConfig(app.BatchConfig{
			Width:        cfg.BatchWidth,
			Pause:        cfg.BatchPause(),
			TopK:         cfg.BatchTopK,
			ActiveWindow: cfg.ActiveWindow(),
			LockTTL:      cfg.BatchLockTTL(),
		}),
		app.WithRetention(cfg.Retention()),
		app.WithQueueCapacity(cfg.NotificationQueueSize),
		app.WithWorkerCount(cfg.NotificationWorkers),
		app.WithBreaker(uint32(cfg.BreakerFailureThreshold), cfg.BreakerOpenTimeout()),
	}
	if rdb != nil {
		opts = append(opts, app.WithLocker(redis.NewLocker(rdb, redisLockPrefix)))
	}
	var sink worker.Sink = worker.NewLogSink(log.Named("notifications"))
	if cfg.NotificationSink == config.SinkRedis && rdb != nil {
		sink = redis.NewPublisher(rdb, cfg.NotificationChannel)
	}
	return append(opts, app.WithSink(sink))
}

// startServiceMetricsUpdater refreshes gauges derived from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.GetStats()
		}
	}
}
