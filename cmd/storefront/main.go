package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	grpchealth "google.golang.org/grpc/health"

	cartapp "github.com/dmehra2102/storefront/internal/cart/application"
	carthttp "github.com/dmehra2102/storefront/internal/cart/infrastructure/http"
	cartpg "github.com/dmehra2102/storefront/internal/cart/infrastructure/postgres"
	cartredis "github.com/dmehra2102/storefront/internal/cart/infrastructure/redis"
	catalogapp "github.com/dmehra2102/storefront/internal/catalog/application"
	cataloghttp "github.com/dmehra2102/storefront/internal/catalog/infrastructure/http"
	catalogpg "github.com/dmehra2102/storefront/internal/catalog/infrastructure/postgres"
	"github.com/dmehra2102/storefront/internal/config"
	couponapp "github.com/dmehra2102/storefront/internal/coupon/application"
	couponhttp "github.com/dmehra2102/storefront/internal/coupon/infrastructure/http"
	couponpg "github.com/dmehra2102/storefront/internal/coupon/infrastructure/postgres"
	"github.com/dmehra2102/storefront/internal/health"
	"github.com/dmehra2102/storefront/internal/identity"
	orderapp "github.com/dmehra2102/storefront/internal/order/application"
	orderdomain "github.com/dmehra2102/storefront/internal/order/domain"
	orderhttp "github.com/dmehra2102/storefront/internal/order/infrastructure/http"
	orderkafka "github.com/dmehra2102/storefront/internal/order/infrastructure/kafka"
	orderpg "github.com/dmehra2102/storefront/internal/order/infrastructure/postgres"
	orderredis "github.com/dmehra2102/storefront/internal/order/infrastructure/redis"
	wishlistapp "github.com/dmehra2102/storefront/internal/wishlist/application"
	wishlisthttp "github.com/dmehra2102/storefront/internal/wishlist/infrastructure/http"
	wishlistpg "github.com/dmehra2102/storefront/internal/wishlist/infrastructure/postgres"
	"github.com/dmehra2102/storefront/migrations"
	"github.com/dmehra2102/storefront/pkg/changefeed"
	"github.com/dmehra2102/storefront/pkg/idempotency"
	"github.com/dmehra2102/storefront/pkg/logging"
	"github.com/dmehra2102/storefront/pkg/notify"
	"github.com/dmehra2102/storefront/pkg/outbox"
	"github.com/dmehra2102/storefront/pkg/shutdown"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

const outboxMaxRetries = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("error").Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "storefront", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}

	if cfg.MigrateOnStart {
		if err := migrations.Up(cfg.PGURL); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
	}

	// Postgres Setup
	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "err", err)
	}

	// Outbox relay
	writer := orderkafka.NewWriter(cfg.KafkaBrokers)
	dispatch := outbox.NewDispatcher(log, writer, cfg.OrderEventsTopic)
	store := outbox.NewPgStore(log, pool, outboxMaxRetries)
	relay := outbox.NewRelay(log, store, dispatch, relayID())

	notifier := notify.Multi{notify.NewLogNotifier(log), notify.NewRedisNotifier(log, rdb)}
	verifier := identity.NewVerifier(cfg.JWTSecret)

	catalog := catalogapp.NewService(log, catalogpg.NewRepository(log, pool))

	cart := cartapp.NewService(log, cartpg.NewRepository(log, pool), cartredis.NewCache(rdb, cfg.CartCacheTTL))

	coupons := couponapp.NewEvaluator(couponpg.NewRepository(log, pool), time.Now)

	orderRepo := orderpg.NewRepository(log, pool)
	orderCache := orderredis.NewCache(rdb, cfg.OrderCacheTTL)
	placement := orderapp.NewPlacementService(log, orderRepo, cart, coupons, orderCache,
		idempotency.NewStore(rdb, cfg.InflightTTL),
		orderdomain.NewNumberGenerator(cfg.OrderNumberPrefix),
		notifier,
		orderapp.PlacementConfig{
			Shipping: orderdomain.ShippingPolicy{
				FreeThresholdCents: cfg.FreeShippingThresholdCents,
				FlatFeeCents:       cfg.FlatShippingFeeCents,
			},
			Attempts: cfg.OrderNumberAttempts,
			Timeout:  cfg.PlacementTimeout,
		})
	status := orderapp.NewStatusService(log, orderRepo, orderCache, notifier)
	queries := orderapp.NewQueries(log, orderRepo, orderCache)
	watcher := orderapp.NewWatcher(log, orderCache, notifier, idempotency.NewStore(rdb, cfg.IdemTTL))
	feed := changefeed.New(log, rdb)

	wishlist := wishlistapp.NewService(log, wishlistpg.NewRepository(log, pool), notifier)

	checker := health.NewChecker(log, map[string]health.Check{
		"postgres": pool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})

	orders := orderhttp.NewHandler(log, placement, status, queries, feed, watcher)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(identity.Authenticate(log, verifier))
	r.Method(http.MethodGet, "/healthz", checker)
	r.Mount("/cart", carthttp.NewHandler(log, cart).Routes())
	r.Mount("/coupons", couponhttp.NewHandler(log, coupons).Routes())
	r.Mount("/orders", orders.Routes())
	r.Mount("/seller/orders", orders.SellerRoutes())
	r.Mount("/wishlist", wishlisthttp.NewHandler(log, wishlist).Routes())
	r.Mount("/", cataloghttp.NewHandler(log, catalog).Routes())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(r, "storefront"),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	// gRPC health
	hs := grpchealth.NewServer()
	gs, err := health.Run(cfg.GRPCAddr, hs)
	if err != nil {
		log.Error("grpc server failed", "err", err)
		os.Exit(1)
	}
	go checker.Watch(ctx, hs, 10*time.Second)

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr, "grpc", cfg.GRPCAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdown.Drain(log, 15*time.Second,
		shutdown.Step{Name: "http", Fn: srv.Shutdown},
		shutdown.Step{Name: "grpc", Fn: func(context.Context) error { gs.GracefulStop(); return nil }},
		shutdown.Step{Name: "kafka writer", Fn: func(context.Context) error { return writer.Close() }},
		shutdown.Step{Name: "redis", Fn: func(context.Context) error { return rdb.Close() }},
		shutdown.Step{Name: "postgres", Fn: func(context.Context) error { pool.Close(); return nil }},
		shutdown.Step{Name: "tracer", Fn: tp.Shutdown},
	)
	log.Info("storefront shutdown complete")
}

func relayID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "storefront-relay"
	}
	return "storefront-relay-" + host
}
