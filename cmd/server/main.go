// Command server runs the HTTP API: start and inspect analysis runs,
// stream run status over WebSocket, and expose Prometheus metrics.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cashlab/internal/config"
	"cashlab/internal/pipeline"
	"cashlab/internal/server"
	"cashlab/internal/storage/clickhouse"
	"cashlab/internal/storage/memory"
	"cashlab/internal/storage/migrations"
	"cashlab/internal/storage/postgres"
	"cashlab/internal/tracing"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of databases")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatal("config", zap.Error(err))
		}
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("either --use-memory or both --postgres-dsn and --clickhouse-dsn are required")
	}

	if err := tracing.Init(cfg.Tracing.Enabled); err != nil {
		logger.Fatal("tracing", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := openStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}
	defer cleanup()

	srv := server.New(cfg, stores, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server", zap.Error(err))
	}

	if err := tracing.Shutdown(context.Background()); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func openStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (pipeline.Stores, func(), error) {
	noop := func() {}

	if useMemory {
		return pipeline.Stores{
			Runs:    memory.NewAnalysisRunStore(),
			Trades:  memory.NewTradeStore(),
			Results: memory.NewTradeResultStore(),
			Records: memory.NewDailyRecordStore(),
			Bars:    memory.NewBenchmarkBarStore(),
		}, noop, nil
	}

	pool, err := postgres.NewPool(ctx, postgresDSN)
	if err != nil {
		return pipeline.Stores{}, noop, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return pipeline.Stores{}, noop, err
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return pipeline.Stores{}, noop, err
	}

	cleanup := func() {
		pool.Close()
		_ = conn.Close()
	}
	return pipeline.Stores{
		Runs:    postgres.NewAnalysisRunStore(pool),
		Trades:  postgres.NewTradeStore(pool),
		Results: postgres.NewTradeResultStore(pool),
		Records: clickhouse.NewDailyRecordStore(conn),
		Bars:    clickhouse.NewBenchmarkBarStore(conn),
	}, cleanup, nil
}
