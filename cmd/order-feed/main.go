package main

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/storefront/internal/config"
	orderkafka "github.com/dmehra2102/storefront/internal/order/infrastructure/kafka"
	"github.com/dmehra2102/storefront/pkg/changefeed"
	"github.com/dmehra2102/storefront/pkg/idempotency"
	"github.com/dmehra2102/storefront/pkg/logging"
	"github.com/dmehra2102/storefront/pkg/shutdown"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		logging.New("error").Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "order-feed", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	idem := idempotency.NewStore(rdb, cfg.IdemTTL)
	feed := changefeed.New(log, rdb)

	reader := orderkafka.NewReader(cfg.KafkaBrokers, cfg.OrderEventsTopic, cfg.FeedGroupID)
	bridge := orderkafka.NewFeedBridge(log, reader, feed, idem)

	log.Info("order feed consuming", "topic", cfg.OrderEventsTopic, "group", cfg.FeedGroupID)
	if err := bridge.Run(ctx); err != nil {
		log.Error("consumer stopped", "err", err)
		cancel()
	}

	shutdown.Drain(log, 10*time.Second,
		shutdown.Step{Name: "redis", Fn: func(context.Context) error { return rdb.Close() }},
		shutdown.Step{Name: "tracer", Fn: tp.Shutdown},
	)
	log.Info("order-feed shutdown complete")
}
