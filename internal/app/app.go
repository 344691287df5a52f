// Package app wires every module into one running registrar process.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"registrar/internal/eventlog"
	"registrar/internal/eventlog/relay"
	"registrar/internal/extension"
	extstore "registrar/internal/extension/store"
	"registrar/internal/marketplace"
	"registrar/internal/platform/config"
	"registrar/internal/platform/httpserver"
	"registrar/internal/platform/kafka"
	"registrar/internal/platform/metrics"
	"registrar/internal/platform/postgres"
	"registrar/internal/platform/redis"
	ratelimit "registrar/internal/ratelimit/middleware"
	"registrar/internal/ratelimit/store/bucket"
	"registrar/internal/registry"
	"registrar/internal/resolver"
	"registrar/internal/resolver/cache"
	httptransport "registrar/internal/transport/http"
	"registrar/pkg/platform/tx"
)

// App holds the wired services and the infrastructure they share.
type App struct {
	cfg    config.Server
	logger *slog.Logger

	Prometheus *prometheus.Registry
	Metrics    *metrics.Metrics

	db    *sql.DB
	redis *redis.Client
	kafka *kgo.Client

	Extensions  *extension.Service
	Events      *eventlog.Log
	Registry    *registry.Service
	Resolver    *resolver.Service
	Marketplace *marketplace.Service
	Relay       *relay.Worker

	Router http.Handler
}

// New connects the configured backends and builds every module. With no
// DatabaseURL all state lives in memory; Redis and Kafka are optional.
func New(ctx context.Context, cfg config.Server, logger *slog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger, Prometheus: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()
	a.Prometheus.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Prometheus)

	var runner tx.Runner = tx.NewSharded()
	if cfg.DatabaseURL != "" {
		if a.db, err = postgres.Open(ctx, cfg.DatabaseURL); err != nil {
			return nil, err
		}
		if err = postgres.Migrate(ctx, a.db); err != nil {
			return nil, err
		}
		runner = tx.NewPostgres(a.db)
	}

	seed := extstore.Defaults()
	if cfg.ExtensionsFile != "" {
		if seed, err = extstore.LoadSeed(cfg.ExtensionsFile); err != nil {
			return nil, err
		}
	}
	a.Extensions = extension.NewService(a.db, logger)
	if err = a.Extensions.Seed(ctx, seed); err != nil {
		return nil, fmt.Errorf("seed extensions: %w", err)
	}

	if a.Events, err = eventlog.NewLog(a.db, logger, a.Metrics); err != nil {
		return nil, err
	}
	if a.Registry, err = registry.NewService(a.db, runner, a.Extensions, a.Events, logger, a.Metrics); err != nil {
		return nil, err
	}

	resolverOpts := []resolver.Option{resolver.WithClosedKeys(cfg.ClosedTextKeys)}
	if a.redis, err = redis.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}
	if a.redis != nil {
		resolverOpts = append(resolverOpts, resolver.WithCache(cache.NewRedisCache(a.redis.Client, cfg.Redis.CacheTTL)))
	}
	if a.Resolver, err = resolver.NewService(a.db, runner, a.Registry, a.Events, logger, a.Metrics, resolverOpts...); err != nil {
		return nil, err
	}
	if a.Marketplace, err = marketplace.NewService(a.db, runner, a.Registry, a.Events, cfg.MaxListingPrice, logger, a.Metrics); err != nil {
		return nil, err
	}
	a.Registry.AddHook(a.Resolver)
	a.Registry.AddHook(a.Marketplace)
	a.Registry.SetListingLookup(a.Marketplace)

	if len(cfg.Kafka.Brokers) > 0 {
		if err = a.buildRelay(ctx); err != nil {
			return nil, err
		}
	}

	a.Router = httptransport.NewRouter(logger, a.Prometheus, []httptransport.RouteRegistrar{
		extension.NewHandler(a.Extensions, logger),
		registry.NewHandler(a.Registry, logger),
		resolver.NewHandler(a.Resolver, logger),
		marketplace.NewHandler(a.Marketplace, logger),
		eventlog.NewHandler(a.Events, logger),
	}, a.routerOptions()...)
	return a, nil
}

func (a *App) buildRelay(ctx context.Context) error {
	var err error
	if a.kafka, err = kafka.NewClient(ctx, a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic); err != nil {
		return err
	}
	if err = kafka.EnsureTopic(ctx, a.kafka, a.cfg.Kafka.Topic, 1); err != nil {
		return err
	}
	var cursor relay.Cursor = &relay.MemoryCursor{}
	if a.db != nil {
		cursor = relay.NewPostgresCursor(a.db)
	}
	a.Relay, err = relay.New(a.Events, relay.NewKafkaProducer(a.kafka, a.cfg.Kafka.Topic), cursor,
		relay.WithInterval(a.cfg.Kafka.RelayInterval),
		relay.WithLogger(a.logger),
		relay.WithMetrics(a.Metrics),
	)
	return err
}

func (a *App) routerOptions() []httptransport.Option {
	var opts []httptransport.Option
	if a.db != nil {
		opts = append(opts, httptransport.WithHealthCheck("postgres", a.db.PingContext))
	}
	if a.redis != nil {
		opts = append(opts, httptransport.WithHealthCheck("redis", a.redis.Health))
	}
	if a.kafka != nil {
		opts = append(opts, httptransport.WithHealthCheck("kafka", a.kafka.Ping))
	}
	if a.cfg.WritesPerMinute > 0 {
		var store ratelimit.Store = bucket.NewInMemoryBucketStore()
		if a.redis != nil {
			store = bucket.NewRedisBucketStore(a.redis.Client)
		}
		limiter := ratelimit.New(store, a.cfg.WritesPerMinute, ratelimit.WithLogger(a.logger))
		opts = append(opts, httptransport.WithWriteLimiter(limiter.Writes))
	}
	return opts
}

// Run serves HTTP and relays events until ctx is cancelled, then shuts the
// server down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	srv := httpserver.New(a.cfg.Addr, a.Router)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "registrar listening", "addr", a.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
		defer cancel()
		a.logger.InfoContext(ctx, "shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if a.Relay != nil {
		g.Go(func() error {
			return a.Relay.Run(ctx)
		})
	}
	return g.Wait()
}

// Close releases backend connections. It is safe on a partly built App.
func (a *App) Close() error {
	var errs []error
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
