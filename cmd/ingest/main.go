// Command ingest normalizes trade and benchmark exports into the
// canonical shapes: trades to a clean CSV, benchmark bars optionally
// into ClickHouse for later runs to compare against.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"cashlab/internal/domain"
	"cashlab/internal/ingestion"
	"cashlab/internal/reporting"
	"cashlab/internal/storage/clickhouse"
	"cashlab/internal/storage/migrations"
)

// barBatchSize is the ClickHouse insert batch for benchmark bars.
const barBatchSize = 500

func main() {
	_ = godotenv.Load()

	tradesPath := flag.String("trades", "", "Trade export to normalize (CSV, Excel, or HTML)")
	outPath := flag.String("out", "", "Write normalized trades CSV here instead of stdout")
	benchmarkPath := flag.String("benchmark", "", "Benchmark price export to normalize")
	benchmarkTicker := flag.String("benchmark-ticker", "", "Ticker the benchmark bars belong to")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "Persist benchmark bars to this ClickHouse instance")
	flag.Parse()

	logger := log.New(os.Stderr, "[ingest] ", log.LstdFlags)

	if *tradesPath == "" && *benchmarkPath == "" {
		logger.Fatal("nothing to do: pass --trades and/or --benchmark")
	}
	if *benchmarkPath != "" && *benchmarkTicker == "" {
		logger.Fatal("--benchmark-ticker is required with --benchmark")
	}

	ctx := context.Background()

	if *tradesPath != "" {
		if err := ingestTrades(ctx, logger, *tradesPath, *outPath); err != nil {
			logger.Fatalf("trades: %v", err)
		}
	}

	if *benchmarkPath != "" {
		if err := ingestBenchmark(ctx, logger, *benchmarkPath, *benchmarkTicker, *clickhouseDSN); err != nil {
			logger.Fatalf("benchmark: %v", err)
		}
	}
}

func ingestTrades(ctx context.Context, logger *log.Logger, path, outPath string) error {
	trades, dropped, err := ingestion.LoadTrades(ctx, path)
	if err != nil {
		return err
	}
	logger.Printf("normalized %d trades (%d rows dropped: %d blank, %d bad date, %d bad price, %d exit before entry)",
		len(trades), dropped.Total(), dropped.Blank, dropped.BadDate,
		dropped.NonPositivePrice, dropped.ExitNotAfterEntry)

	csv := reporting.RenderTradesCSV(trades)
	if outPath == "" {
		fmt.Print(csv)
		return nil
	}
	return os.WriteFile(outPath, []byte(csv), 0644)
}

func ingestBenchmark(ctx context.Context, logger *log.Logger, path, ticker, dsn string) error {
	bars, dropped, err := ingestion.LoadBenchmark(ctx, path)
	if err != nil {
		return err
	}
	logger.Printf("normalized %d %s bars (%d rows dropped)", len(bars), ticker, dropped.Total())

	if dsn == "" {
		logger.Print("no --clickhouse-dsn, bars not persisted")
		return nil
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer conn.Close()

	store := clickhouse.NewBenchmarkBarStore(conn)
	bar := progressbar.NewOptions(len(bars),
		progressbar.OptionSetDescription(fmt.Sprintf("Persisting %s bars...", ticker)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
	for _, chunk := range chunkBars(bars, barBatchSize) {
		if err := store.InsertBulk(ctx, ticker, chunk); err != nil {
			return err
		}
		_ = bar.Add(len(chunk))
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	logger.Printf("persisted %d %s bars", len(bars), ticker)
	return nil
}

func chunkBars(bars []domain.BenchmarkBar, size int) [][]domain.BenchmarkBar {
	var chunks [][]domain.BenchmarkBar
	for len(bars) > size {
		chunks = append(chunks, bars[:size])
		bars = bars[size:]
	}
	if len(bars) > 0 {
		chunks = append(chunks, bars)
	}
	return chunks
}
