package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"

	"registrar/internal/app"
	"registrar/internal/platform/config"
	"registrar/internal/platform/logger"
	"registrar/internal/platform/postgres"
	strutil "registrar/pkg/platform/strings"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "registrar",
		Usage: "Web3 domain registry, resolver and marketplace",
		Flags: globalFlags(),
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (env LOG_LEVEL)"},
		&cli.StringFlag{Name: "log-format", Usage: "json or text (env LOG_FORMAT)"},
		&cli.StringFlag{Name: "database-url", Usage: "Postgres DSN; empty keeps state in memory (env DATABASE_URL)"},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and the event relay",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (env REGISTRAR_ADDR)"},
			&cli.StringFlag{Name: "redis-url", Usage: "resolution cache; empty disables it (env REDIS_URL)"},
			&cli.StringFlag{Name: "kafka-brokers", Usage: "comma separated brokers; empty disables the relay (env KAFKA_BROKERS)"},
			&cli.StringFlag{Name: "kafka-topic", Usage: "event topic (env KAFKA_EVENTS_TOPIC)"},
			&cli.StringFlag{Name: "extensions-file", Usage: "YAML extension catalog seed (env EXTENSIONS_FILE)"},
			&cli.BoolFlag{Name: "closed-text-keys", Usage: "reject unknown text record keys (env CLOSED_TEXT_KEYS)"},
			&cli.StringFlag{Name: "max-listing-price", Usage: "marketplace price ceiling (env MAX_LISTING_PRICE)"},
			&cli.DurationFlag{Name: "shutdown-timeout", Usage: "graceful shutdown budget (env SHUTDOWN_TIMEOUT)"},
			&cli.IntFlag{Name: "writes-per-minute", Usage: "per-client write limit, 0 disables (env RATE_LIMIT_WRITES_PER_MINUTE)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return runServer(ctx, cfg)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending Postgres migrations and exit",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("migrate needs --database-url or DATABASE_URL")
			}
			db, err := postgres.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
			logger.New(cfg.LogLevel, cfg.LogFormat).InfoContext(ctx, "migrations applied")
			return nil
		},
	}
}

// loadConfig starts from the environment and applies any flag the caller set.
func loadConfig(c *cli.Command) (config.Server, error) {
	cfg := config.FromEnv()
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}
	if c.IsSet("database-url") {
		cfg.DatabaseURL = c.String("database-url")
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if c.IsSet("redis-url") {
		cfg.Redis.URL = c.String("redis-url")
	}
	if c.IsSet("kafka-brokers") {
		cfg.Kafka.Brokers = strutil.SplitList(c.String("kafka-brokers"))
	}
	if c.IsSet("kafka-topic") {
		cfg.Kafka.Topic = c.String("kafka-topic")
	}
	if c.IsSet("extensions-file") {
		cfg.ExtensionsFile = c.String("extensions-file")
	}
	if c.IsSet("closed-text-keys") {
		cfg.ClosedTextKeys = c.Bool("closed-text-keys")
	}
	if c.IsSet("shutdown-timeout") {
		cfg.ShutdownTimeout = c.Duration("shutdown-timeout")
	}
	if c.IsSet("writes-per-minute") {
		cfg.WritesPerMinute = int(c.Int("writes-per-minute"))
	}
	if c.IsSet("max-listing-price") {
		price, err := decimal.NewFromString(c.String("max-listing-price"))
		if err != nil || !price.IsPositive() {
			return cfg, fmt.Errorf("max-listing-price must be a positive number, got %q", c.String("max-listing-price"))
		}
		cfg.MaxListingPrice = price
	}
	return cfg, nil
}

func runServer(ctx context.Context, cfg config.Server) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("close backends", "error", err)
		}
	}()

	log.InfoContext(ctx, "starting registrar",
		"addr", cfg.Addr,
		"durable", cfg.DatabaseURL != "",
		"cache", cfg.Redis.URL != "",
		"relay", len(cfg.Kafka.Brokers) > 0,
	)
	return a.Run(ctx)
}
