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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/facility-scheduling-core/internal/api"
	"github.com/hackgods/facility-scheduling-core/internal/appointment"
	"github.com/hackgods/facility-scheduling-core/internal/audit"
	"github.com/hackgods/facility-scheduling-core/internal/billing"
	"github.com/hackgods/facility-scheduling-core/internal/config"
	"github.com/hackgods/facility-scheduling-core/internal/db"
	"github.com/hackgods/facility-scheduling-core/internal/ids"
	"github.com/hackgods/facility-scheduling-core/internal/lock"
	"github.com/hackgods/facility-scheduling-core/internal/logging"
	"github.com/hackgods/facility-scheduling-core/internal/metrics"
	"github.com/hackgods/facility-scheduling-core/internal/room"
	"github.com/hackgods/facility-scheduling-core/internal/schedule"
	"github.com/hackgods/facility-scheduling-core/internal/seed"
)

func serveCmd() *cobra.Command {
	var seedDemo bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config load error: %w", err)
			}
			if cmd.Flags().Changed("seed") {
				cfg.SeedDemo = seedDemo
			}
			return runServer(cfg)
		},
	}
	cmd.Flags().BoolVar(&seedDemo, "seed", false, "populate demo providers, patients and rooms (overrides SEED_DEMO)")
	return cmd
}

func runServer(cfg config.Config) error {
	log := logging.New(logging.Options{
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Service: "api-server",
	})
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).
		Str("lock_backend", cfg.LockBackend).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Locks
	var (
		locker lock.Locker = lock.NewMemoryLocker()
		rdb    *redis.Client
	)
	if cfg.LockBackend == config.LockBackendRedis {
		client, err := lock.NewRedisClient(rootCtx, redisOptions(cfg))
		if err != nil {
			return fmt.Errorf("redis connection error: %w", err)
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing redis")
			}
		}()
		rdb = client
		locker = lock.NewRedisLocker(client, cfg.LockTTL)
		log.Info().Str("addr", cfg.RedisAddr).Dur("lock_ttl", cfg.LockTTL).Msg("connected to Redis")
	}

	// Audit log
	sinks := audit.Multi{audit.NewLogSink(log)}
	var pgPool *pgxpool.Pool
	if cfg.PostgresDSN != "" {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, poolOptions(cfg))
		if err != nil {
			cancelPg()
			return fmt.Errorf("postgres connection error: %w", err)
		}
		pgSink := audit.NewPgSink(pool)
		err = pgSink.EnsureSchema(pgCtx)
		cancelPg()
		if err != nil {
			pool.Close()
			return fmt.Errorf("postgres audit schema: %w", err)
		}
		defer pool.Close()
		pgPool = pool
		sinks = append(sinks, pgSink)
		log.Info().Msg("connected to Postgres, audit events persisted")
	}
	events := audit.NewRecorder(sinks, log)

	// Metrics
	prom, err := metrics.NewPrometheusProvider()
	if err != nil {
		return fmt.Errorf("metrics provider: %w", err)
	}
	defer func() {
		if err := prom.Shutdown(context.Background()); err != nil {
			log.Warn().Err(err).Msg("error shutting down metrics")
		}
	}()
	recorder, err := metrics.NewRecorder(prom.MeterProvider.Meter("clinic"))
	if err != nil {
		return fmt.Errorf("metrics recorder: %w", err)
	}

	// Services
	repo := appointment.NewMemRepository()
	booking := appointment.NewService(repo, locker, ids.NewSequence("APP", 4),
		appointment.WithWeek(schedule.WeekOf(cfg.AnchorWeek)),
		appointment.WithEvents(events),
		appointment.WithMetrics(recorder),
		appointment.WithLogger(log.With().Str("component", "booking").Logger()),
	)
	ledger := billing.NewLedger(repo, locker, ids.NewSequence("INV", 4),
		billing.WithEvents(events),
		billing.WithMetrics(recorder),
		billing.WithLogger(log.With().Str("component", "billing").Logger()),
	)
	rooms := room.NewAllocator(repo, locker,
		room.WithEvents(events),
		room.WithMetrics(recorder),
		room.WithLogger(log.With().Str("component", "rooms").Logger()),
	)

	if cfg.SeedDemo {
		opts := seed.Options{Providers: cfg.SeedProviders, Patients: cfg.SeedPatients}
		if _, err := seed.Populate(rootCtx, booking, rooms, opts, log); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	router := api.NewRouter(api.RouterConfig{
		Booking: booking,
		Ledger:  ledger,
		Rooms:   rooms,
		PgPool:  pgPool,
		Redis:   rdb,
		Metrics: prom.Handler,
		Logger:  log,
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return serve(rootCtx, srv, cfg.ShutdownTimeout, log)
}

func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func redisOptions(cfg config.Config) lock.RedisOptions {
	return lock.RedisOptions{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
		Timeout:  cfg.RedisTimeout,
	}
}

func poolOptions(cfg config.Config) db.PoolOptions {
	return db.PoolOptions{
		MaxConns:        int32(cfg.PgMaxConns),
		MinConns:        int32(cfg.PgMinConns),
		MaxConnLifetime: cfg.PgConnLifetime,
		MaxConnIdleTime: cfg.PgConnIdleTime,
		PingTimeout:     cfg.PgPingTimeout,
	}
}
