package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	roleverify "github.com/MrEthical07/roleverify"
	"github.com/MrEthical07/roleverify/audit/kafkasink"
	"github.com/MrEthical07/roleverify/discord"
	"github.com/MrEthical07/roleverify/internal/config"
	"github.com/MrEthical07/roleverify/internal/httpserver"
	"github.com/MrEthical07/roleverify/internal/logger"
	"github.com/MrEthical07/roleverify/internal/telemetry"
	otelexport "github.com/MrEthical07/roleverify/metrics/export/otel"
	promexport "github.com/MrEthical07/roleverify/metrics/export/prometheus"
	"github.com/MrEthical07/roleverify/reply"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "verifybot"

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "verifybot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Environment, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		log.Info("redis connected", zap.String("addr", opts.Addr))
	}

	sinks := roleverify.MultiSink{roleverify.NewZapSink(log)}
	if brokers := cfg.KafkaBrokersList(); len(brokers) > 0 {
		ks, err := kafkasink.New(brokers, cfg.KafkaAuditTopic, log)
		if err != nil {
			return err
		}
		defer func() { _ = ks.Close() }()
		sinks = append(sinks, ks)
		log.Info("kafka audit sink enabled",
			zap.Strings("brokers", brokers),
			zap.String("topic", cfg.KafkaAuditTopic),
		)
	}

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}

	builder := roleverify.New().
		WithConfig(cfg.EngineConfig()).
		WithPlatform(discord.NewPlatform(session)).
		WithAuditSink(sinks).
		WithLogger(log)
	if rdb != nil {
		builder = builder.WithRedis(rdb)
	}
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	provider, err := telemetry.NewProvider(ctx, cfg.OTLPEndpoint, serviceName, version)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	otelExp, err := otelexport.NewOTelExporter(provider.MeterProvider.Meter(serviceName), engine)
	if err != nil {
		return fmt.Errorf("otel exporter: %w", err)
	}
	defer func() { _ = otelExp.Close() }()

	mailbox := reply.NewMailbox()
	handler := discord.NewHandler(engine, session, mailbox, cfg.ChallengeDelivery, log)
	bot := discord.NewBot(session, handler, cfg.DiscordGuildID, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(gctx)
	})
	g.Go(func() error {
		return engine.Run(gctx)
	})
	if cfg.HTTPAddr != "" {
		checks := []httpserver.Check{{Name: "discord", Probe: bot.Probe}}
		if rdb != nil {
			checks = append(checks, httpserver.Check{
				Name:  "redis",
				Probe: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			})
		}
		router := httpserver.NewRouter(httpserver.Options{
			Metrics: promexport.NewPrometheusExporter(engine).Handler(),
			Checks:  checks,
			Logger:  log,
		})
		g.Go(func() error {
			return httpserver.Run(gctx, cfg.HTTPAddr, router, log)
		})
	}

	log.Info("verifybot starting",
		zap.String("version", version),
		zap.String("environment", cfg.Environment),
		zap.String("delivery", cfg.ChallengeDelivery),
		zap.Bool("rate_limit", rdb != nil),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("verifybot stopped")
	return nil
}
