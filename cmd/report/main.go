// Command report regenerates the report files for a stored run from
// its persisted trades, results, and daily records.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"cashlab/internal/benchmark"
	"cashlab/internal/domain"
	"cashlab/internal/pipeline"
	"cashlab/internal/reporting"
	"cashlab/internal/storage/clickhouse"
	"cashlab/internal/storage/migrations"
	"cashlab/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	runID := flag.String("run-id", "", "Run to report on (omit for the most recent completed run)")
	generatedAt := flag.String("generated-at", "", "RFC3339 report timestamp, for deterministic output")
	outputDir := flag.String("output-dir", "output", "Directory for report files")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *postgresDSN == "" || *clickhouseDSN == "" {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required")
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("clickhouse: %v", err)
	}
	defer conn.Close()

	runs := postgres.NewAnalysisRunStore(pool)
	results := postgres.NewTradeResultStore(pool)
	records := clickhouse.NewDailyRecordStore(conn)
	bars := clickhouse.NewBenchmarkBarStore(conn)

	run, err := resolveRun(ctx, runs, *runID)
	if err != nil {
		logger.Fatalf("resolve run: %v", err)
	}

	dailyRecords, err := records.GetByRunID(ctx, run.RunID)
	if err != nil {
		logger.Fatalf("load daily records: %v", err)
	}
	tradeResults, err := results.GetByRunID(ctx, run.RunID)
	if err != nil {
		logger.Fatalf("load trade results: %v", err)
	}

	var comparison *domain.ComparisonMetrics
	var benchDaily []domain.BenchmarkDaily
	if run.BenchmarkTicker != "" {
		tickerBars, err := bars.GetByTicker(ctx, run.BenchmarkTicker)
		if err != nil {
			logger.Fatalf("load %s bars: %v", run.BenchmarkTicker, err)
		}
		benchDaily, err = benchmark.BuildBuyAndHold(tickerBars, run.FirstDate, run.LastDate, run.StartingCash)
		if err != nil {
			logger.Fatalf("benchmark trajectory: %v", err)
		}
		metrics, err := benchmark.Compare(dailyRecords, benchDaily)
		if err != nil {
			logger.Fatalf("compare: %v", err)
		}
		comparison = &metrics
	}

	now := time.Now().UTC()
	if *generatedAt != "" {
		now, err = time.Parse(time.RFC3339, *generatedAt)
		if err != nil {
			logger.Fatalf("invalid --generated-at: %v", err)
		}
	}
	report := reporting.BuildReport(run, dailyRecords, tradeResults, comparison, now)

	if err := writeFiles(*outputDir, report, dailyRecords, tradeResults, benchDaily); err != nil {
		logger.Fatalf("write report files: %v", err)
	}

	fmt.Printf("Report regenerated for run %s (%s) into %s\n", run.RunID, run.Label, *outputDir)
	if report.Verdict != "" {
		fmt.Println(report.Verdict)
	}
}

// resolveRun picks the requested run, or the newest completed one.
func resolveRun(ctx context.Context, runs *postgres.AnalysisRunStore, runID string) (*domain.AnalysisRun, error) {
	if runID != "" {
		return runs.GetByID(ctx, runID)
	}
	all, err := runs.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range all {
		if r.Status == domain.RunStatusCompleted {
			return r, nil
		}
	}
	return nil, fmt.Errorf("no completed runs")
}

func writeFiles(dir string, report *reporting.Report, records []domain.DailyRecord, results []domain.TradeResult, benchDaily []domain.BenchmarkDaily) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	files := map[string]string{
		pipeline.DailyRecordsCSV: reporting.RenderDailyRecordsCSV(records),
		pipeline.TradeResultsCSV: reporting.RenderTradeResultsCSV(results),
		pipeline.ReportMD:        reporting.RenderMarkdown(report),
	}
	if benchDaily != nil {
		files[pipeline.BenchmarkDailyCSV] = reporting.RenderBenchmarkCSV(benchDaily)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return err
		}
	}

	f, err := os.Create(filepath.Join(dir, pipeline.DailyRecordsArrow))
	if err != nil {
		return err
	}
	if err := reporting.WriteDailyRecordsArrow(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
