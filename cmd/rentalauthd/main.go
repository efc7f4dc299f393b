// Command rentalauthd serves the rental auth HTTP API.
//
// It reads settings from an optional YAML file, .env and the process
// environment (see internal/config), migrates the Postgres schema, and
// subscribes to member events on RabbitMQ when RENTALAUTH_AMQP_URL is set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	rentalAuth "github.com/MrEthical07/rentalAuth"
	"github.com/MrEthical07/rentalAuth/bus"
	"github.com/MrEthical07/rentalAuth/httpapi"
	"github.com/MrEthical07/rentalAuth/internal/config"
	"github.com/MrEthical07/rentalAuth/store/postgres"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML settings file")
		envFile    = flag.String("env-file", "", "path to a .env file")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.Options{ConfigPath: *configPath, EnvFile: *envFile}); err != nil {
		fmt.Fprintf(os.Stderr, "rentalauthd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts config.Options) error {
	settings, err := config.Load(ctx, opts)
	if err != nil {
		return err
	}
	logger := newLogger(settings.LogLevel)

	rdb := redis.NewClient(&redis.Options{
		Addr:     settings.RedisAddr,
		Password: settings.RedisPassword,
		DB:       settings.RedisDB,
	})
	defer rdb.Close()

	db, err := postgres.Open(ctx, settings.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	builder := rentalAuth.New().
		WithConfig(settings.Auth).
		WithRedis(rdb).
		WithMemberRepository(postgres.NewMemberRepository(db)).
		WithHistoryRepository(postgres.NewHistoryRepository(db)).
		WithLockRepository(postgres.NewLockRepository(db)).
		WithLogger(logger)

	var amqpConn *amqp.Connection
	var pubCh, subCh *amqp.Channel
	if settings.AMQPURL != "" {
		amqpConn, err = amqp.Dial(settings.AMQPURL)
		if err != nil {
			return fmt.Errorf("amqp dial: %w", err)
		}
		defer amqpConn.Close()

		if pubCh, err = amqpConn.Channel(); err != nil {
			return fmt.Errorf("amqp publish channel: %w", err)
		}
		if err := bus.DeclareExchange(pubCh, settings.AMQPExchange); err != nil {
			return err
		}
		builder = builder.WithEventSink(bus.NewPublisher(pubCh, settings.AMQPExchange, logger))

		if subCh, err = amqpConn.Channel(); err != nil {
			return fmt.Errorf("amqp consume channel: %w", err)
		}
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	errCh := make(chan error, 2)
	if subCh != nil {
		deliveries, err := bus.Subscribe(subCh, settings.AMQPExchange, settings.AMQPQueue, settings.AMQPPrefetch)
		if err != nil {
			return err
		}
		consumer := bus.NewConsumer(engine, logger)
		go func() {
			if err := consumer.Run(ctx, deliveries); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("member event consumer: %w", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              settings.HTTPAddr,
		Handler:           httpapi.NewHandler(engine, logger),
		ReadHeaderTimeout: settings.ShutdownTimeout,
	}
	go func() {
		logger.Info("listening", "addr", settings.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("fatal", "error", err)
		shutdown(srv, settings, logger)
		return err
	}
	shutdown(srv, settings, logger)
	return nil
}

func shutdown(srv *http.Server, settings config.Settings, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), settings.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
