// Command analyze runs one full analysis: simulation, per-trade
// recalculation, benchmark comparison, persistence, and report files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"cashlab/internal/config"
	"cashlab/internal/pipeline"
	"cashlab/internal/storage/clickhouse"
	"cashlab/internal/storage/memory"
	"cashlab/internal/storage/migrations"
	"cashlab/internal/storage/postgres"
	"cashlab/internal/tracing"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "YAML config file (flags override it)")
	tradesPath := flag.String("trades", "", "Trade export to analyze")
	useFixtures := flag.Bool("use-fixtures", false, "Use the built-in sample dataset")
	benchmarkPath := flag.String("benchmark", "", "Benchmark price export")
	benchmarkTicker := flag.String("benchmark-ticker", "", "Benchmark ticker (with --benchmark, or to load bars from storage)")
	outputDir := flag.String("output-dir", "", "Directory for report files")
	startingCash := flag.String("starting-cash", "", "Starting cash balance")
	allocationFraction := flag.Float64("allocation-fraction", 0, "Fraction of cash allocated per entry")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Persist to in-memory stores (lost at exit)")
	verify := flag.Bool("verify", false, "Read persisted daily records back and diff against the computed series")
	flag.Parse()

	logger := log.New(os.Stderr, "[analyze] ", log.LstdFlags)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *startingCash != "" {
		cfg.Simulation.StartingCash = *startingCash
	}
	if *allocationFraction != 0 {
		cfg.Simulation.AllocationFraction = *allocationFraction
	}

	if !*useFixtures && *tradesPath == "" {
		logger.Fatal("either --trades or --use-fixtures is required")
	}

	cash, err := decimal.NewFromString(cfg.Simulation.StartingCash)
	if err != nil {
		logger.Fatalf("invalid starting cash %q: %v", cfg.Simulation.StartingCash, err)
	}
	fraction := decimal.NewFromFloat(cfg.Simulation.AllocationFraction)

	if err := tracing.Init(cfg.Tracing.Enabled); err != nil {
		logger.Fatalf("tracing: %v", err)
	}
	ctx := context.Background()
	defer func() {
		if err := tracing.Shutdown(ctx); err != nil {
			logger.Printf("tracing shutdown: %v", err)
		}
	}()

	stores, cleanup, err := openStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	defer cleanup()

	p := pipeline.New(cfg.Output.Dir, cash, fraction).WithStores(stores)
	if *verify {
		p = p.WithVerification()
	}
	switch {
	case *useFixtures:
		p = p.WithFixtures()
	default:
		p = p.WithTradesFile(*tradesPath)
		ticker := *benchmarkTicker
		if ticker == "" {
			ticker = cfg.Benchmark.Ticker
		}
		switch {
		case *benchmarkPath != "":
			if ticker == "" {
				logger.Fatal("--benchmark-ticker is required with --benchmark")
			}
			p = p.WithBenchmarkFile(ticker, *benchmarkPath)
		case *benchmarkTicker != "":
			p = p.WithBenchmarkTicker(*benchmarkTicker)
		}
	}

	res, err := p.Run(ctx)
	if err != nil {
		logger.Fatalf("analysis failed: %v", err)
	}

	fmt.Printf("Run %s (%s) completed: %d trades over %s..%s\n",
		res.Run.RunID, res.Run.Label, res.Run.TradeCount,
		res.Run.FirstDate.Format("2006-01-02"), res.Run.LastDate.Format("2006-01-02"))
	if res.Report.Verdict != "" {
		fmt.Println(res.Report.Verdict)
	}
	if res.Verification != nil {
		fmt.Printf("Verification: %d days recomputed, all matching\n", res.Verification.TotalDays)
	}
	fmt.Println("Files:")
	for _, f := range res.Files {
		fmt.Printf("  %s\n", f)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openStores connects whichever persistence the flags selected. The
// returned cleanup is always safe to call.
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

	if postgresDSN == "" && clickhouseDSN == "" {
		return pipeline.Stores{}, noop, nil
	}

	var stores pipeline.Stores
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if postgresDSN != "" {
		pool, err := postgres.NewPool(ctx, postgresDSN)
		if err != nil {
			return pipeline.Stores{}, noop, fmt.Errorf("postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return pipeline.Stores{}, noop, fmt.Errorf("postgres migrations: %w", err)
		}
		stores.Runs = postgres.NewAnalysisRunStore(pool)
		stores.Trades = postgres.NewTradeStore(pool)
		stores.Results = postgres.NewTradeResultStore(pool)
	}

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			cleanup()
			return pipeline.Stores{}, noop, fmt.Errorf("clickhouse: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		stores.Records = clickhouse.NewDailyRecordStore(conn)
		stores.Bars = clickhouse.NewBenchmarkBarStore(conn)
	}

	return stores, cleanup, nil
}
