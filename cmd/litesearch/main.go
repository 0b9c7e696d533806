package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/lite/events"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/internal/search/handler"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Product-Search-Engine/pkg/middleware"
)

func main() {
	app := &cli.App{
		Name:  "litesearch",
		Usage: "Product search with a local TF-IDF fallback engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				EnvVars: []string{"SP_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override logging level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "demo",
				Usage: "Serve a built-in sample catalog instead of PostgreSQL",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, catalog event consumer and scheduled rebuilds",
				Action: serveCommand,
			},
			{
				Name:   "rebuild",
				Usage:  "Force a lite index rebuild and print the result",
				Action: rebuildCommand,
			},
			{
				Name:      "search",
				Usage:     "Search the catalog and print matching product ids",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Print statistics of the cached lite index (needs the redis cache backend)",
				Action: statsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "litesearch: %v\n", err)
		os.Exit(1)
	}
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c, false)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting litesearch", "port", cfg.Server.Port, "mode", cfg.Router.Mode, "index_size", cfg.Lite.IndexSize)
	a, err := newApp(cfg, c.Bool("demo"), metrics.New(nil))
	if err != nil {
		return err
	}
	defer a.Close()

	var sink handler.EventSink = events.NewLocal(a.engine)
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CatalogEvents)
		a.closers = append(a.closers, producer.Close)
		sink = events.NewPublisher(producer)

		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CatalogEvents, cfg.Kafka.ConsumerGroup, events.HandleMessage(a.engine))
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("catalog event consumer stopped", "error", err)
			}
		}()
		slog.Info("catalog event consumer started", "topic", cfg.Kafka.Topics.CatalogEvents)
	}

	go a.engine.StartRebuildLoop(ctx)

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer shutdownMetrics(context.Background())
	}

	mux := http.NewServeMux()
	handler.New(a.router, sink, cfg.Search).Register(mux, cfg.Server.AdminToken)
	mux.HandleFunc("GET /health/live", a.health.LiveHandler())
	mux.HandleFunc("GET /health/ready", a.health.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(a.metrics)(chain)
	chain = middleware.CORS(middleware.DefaultCORSConfig())(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("litesearch listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	slog.Info("litesearch stopped")
	return nil
}

func rebuildCommand(c *cli.Context) error {
	a, err := setupOneShot(c)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.engine.ForceRebuild(c.Context)
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Success {
		return cli.Exit(result.Message, 2)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("search needs a query", 2)
	}
	a, err := setupOneShot(c)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.router.Search(c.Context, c.Args().First(), c.Int("limit"))
	if err != nil {
		return err
	}
	return printJSON(res)
}

func statsCommand(c *cli.Context) error {
	a, err := setupOneShot(c)
	if err != nil {
		return err
	}
	defer a.Close()
	if !a.sharedCache {
		slog.Warn("index cache is in-memory, so a fresh process never has a cached index; set lite.cacheBackend to redis to inspect a running server's index")
	}
	return printJSON(a.engine.Stats(c.Context))
}

// setupOneShot loads config and wires the app for commands that print to
// stdout; their logs go to stderr.
func setupOneShot(c *cli.Context) (*app, error) {
	cfg, err := loadConfig(c, true)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, c.Bool("demo"), nil)
}

func loadConfig(c *cli.Context, toStderr bool) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if toStderr {
		logger.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	} else {
		logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	}
	return cfg, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
