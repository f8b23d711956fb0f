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

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stayloop/bookingsim/config"
	"github.com/stayloop/bookingsim/pkg/health"
	"github.com/stayloop/bookingsim/pkg/kafka"
	"github.com/stayloop/bookingsim/pkg/redis"
	"github.com/stayloop/bookingsim/pkg/scheduler"
	"github.com/stayloop/bookingsim/pkg/simulator"
	"github.com/stayloop/bookingsim/pkg/snapshot"
	"github.com/stayloop/bookingsim/pkg/tracing"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookingsim",
		Short: "Synthetic reservation lifecycle event generator",
		Long:  "Generates a temporally consistent stream of reservation lifecycle events for analytics pipeline testing.",
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newTickCommand())

	return cmd
}

// newRunCommand starts the simulator daemon: a scheduler firing one
// generation cycle per tick, plus the ops HTTP surface.
func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the simulator on a fixed cadence",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context())
		},
	}
}

// newTickCommand runs exactly one generation cycle and exits. Useful for
// cron-style invocation and local debugging.
func newTickCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run a single generation cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context())
		},
	}
}

func loadConfig() (config.Config, error) {
	// A missing .env file is fine; environment variables still apply.
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to bind configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (ectologger.Logger, func()) {
	zapConfig := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapConfig = zap.NewDevelopmentConfig()
	}

	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapConfig.Level = zap.NewAtomicLevelAt(level)
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		zapLogger = zap.NewNop()
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil), func() { _ = zapLogger.Sync() }
}

// buildRunner wires the snapshot store, sink and engine. The returned
// cleanup closes all connections.
func buildRunner(ctx context.Context, cfg config.Config, logger ectologger.Logger) (*simulator.Runner, *redis.Client, func(), error) {
	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	store := snapshot.New(redisClient, snapshot.Config{
		IndexKey:   cfg.SnapshotNamespace + ":" + cfg.SnapshotIndexKey,
		PendingKey: cfg.SnapshotNamespace + ":" + cfg.SnapshotPendingKey,
	}, logger)

	var publisher simulator.Publisher
	var producer *kafka.Producer
	if cfg.KafkaBrokers != "" {
		producer = kafka.NewProducer(kafka.ParseConfig(cfg.KafkaBrokers, cfg.KafkaTopic), logger)
		publisher = producer
	} else {
		logger.WithContext(ctx).Error("KAFKA_BROKERS is not configured, events will be generated but not emitted")
	}

	runner := simulator.NewRunner(store, publisher, simulator.Config{
		EventsPerTick:       cfg.EventsPerTick,
		MaxAttemptsPerEvent: cfg.MaxAttemptsPerEvent,
		Seed:                cfg.Seed,
	}, logger)

	cleanup := func() {
		if producer != nil {
			_ = producer.Close()
		}
		_ = redisClient.Close()
	}

	return runner, redisClient, cleanup, nil
}

func runOnce(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, flush := newLogger(cfg)
	defer flush()

	runner, _, cleanup, err := buildRunner(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	events, err := runner.RunCycle(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	logger.WithContext(ctx).Infof("Single cycle finished with %d accepted events", len(events))
	return nil
}

func runDaemon(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, flush := newLogger(cfg)
	defer flush()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		ServiceName: cfg.AppName,
		Enabled:     cfg.OTLPEnabled,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	runner, redisClient, cleanup, err := buildRunner(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	locker := redis.NewLocker(redisClient, cfg.SnapshotNamespace+":lock:")

	sched := scheduler.NewScheduler(runner, locker, scheduler.Config{
		TickInterval: cfg.TickInterval,
		LockTTL:      cfg.CycleLockTTL,
	}, logger)

	if err := sched.Start(ctx); err != nil {
		return err
	}

	checker := health.NewChecker(redisClient.Redis(), version)
	checker.SetReady(true)

	e := echo.New()
	e.HideBanner = true
	e.GET("/health", checker.LivenessHandler)
	e.GET("/ready", checker.ReadinessHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	go func() {
		addr := fmt.Sprintf(":%d", cfg.OpsPort)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Ops server stopped unexpectedly")
		}
	}()

	logger.WithContext(ctx).Infof("%s started: tick_interval=%s events_per_tick=%d", cfg.AppName, cfg.TickInterval, cfg.EventsPerTick)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.WithContext(ctx).Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Scheduler did not stop cleanly")
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Ops server did not stop cleanly")
	}

	return nil
}
