// cmd/api/main.go

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"tweetscope/internal/adapter/events"
	"tweetscope/internal/adapter/storage"
	"tweetscope/internal/adapter/twitter"
	"tweetscope/internal/config"
	"tweetscope/internal/domain/tweet"
	"tweetscope/internal/logging"
	"tweetscope/internal/server"
	"tweetscope/internal/server/handlers"
	"tweetscope/internal/service/pipeline"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", "error", err)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, "api")
	if err != nil {
		log.Fatal("Failed to create logger", "error", err)
	}

	if err := cfg.RequireTwitter(); err != nil {
		logger.Fatal("Missing Twitter credentials", "error", err)
	}

	// Setup context cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := twitter.NewClient(cfg.Twitter, logger.WithPrefix("twitter"))
	if err != nil {
		logger.Fatal("Failed to create Twitter client", "error", err)
	}

	// Optional recorders fed by every run
	var recorders []tweet.Recorder
	if cfg.Storage.ArchiveDB != "" {
		archive, err := storage.NewTweetArchive(cfg.Storage.ArchiveDB)
		if err != nil {
			logger.Fatal("Failed to open tweet archive", "error", err)
		}
		defer archive.Close()
		recorders = append(recorders, archive)
	}

	runner := pipeline.NewRunner(source, logger.WithPrefix("pipeline"), recorders...)

	// Report store is optional
	var store handlers.ReportRepository
	if cfg.Database.Enabled {
		db, err := initDatabase(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("Failed to initialize database", "error", err)
		}
		defer db.Close()

		reportStore := storage.NewReportStore(db)
		if err := reportStore.EnsureSchema(ctx); err != nil {
			logger.Fatal("Failed to prepare report schema", "error", err)
		}
		store = reportStore
	}

	// Run events go to NATS when enabled
	if cfg.NATS.Enabled {
		natsConn, err := initNATS(cfg.NATS, logger)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", "error", err)
		}
		defer natsConn.Close()

		publisher := events.NewPublisher(natsConn, cfg.NATS.EventsTopic, logger.WithPrefix("events"))
		runner.RegisterEventHandler(publisher.Publish)
	}

	httpServer := server.NewServer(cfg.Server, runner, store, logger.WithPrefix("http"))

	g, gctx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		logger.Info("Starting HTTP server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown once a signal arrives or the server fails
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Shutdown complete")
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, logger *log.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
