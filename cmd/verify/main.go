// Command verify recomputes stored runs from their persisted trades
// and diffs the result against the stored daily records. Any
// divergence means the stored data no longer matches the simulation
// and the command exits nonzero.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"cashlab/internal/domain"
	"cashlab/internal/storage/clickhouse"
	"cashlab/internal/storage/migrations"
	"cashlab/internal/storage/postgres"
	"cashlab/internal/verification"
)

func main() {
	_ = godotenv.Load()

	runID := flag.String("run-id", "", "Run to verify (omit to verify every completed run)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	flag.Parse()

	logger := log.New(os.Stderr, "[verify] ", log.LstdFlags)

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
	verifier := verification.NewVerifier(
		runs,
		postgres.NewTradeStore(pool),
		clickhouse.NewDailyRecordStore(conn),
	)

	ids, err := targetRuns(ctx, runs, *runID)
	if err != nil {
		logger.Fatalf("resolve runs: %v", err)
	}
	if len(ids) == 0 {
		logger.Fatal("no completed runs to verify")
	}

	clean := true
	for _, id := range ids {
		report, err := verifier.VerifyRun(ctx, id)
		if err != nil {
			logger.Fatalf("verify %s: %v", id, err)
		}
		printReport(id, report)
		if !report.OK() {
			clean = false
		}
	}

	if !clean {
		os.Exit(1)
	}
}

func targetRuns(ctx context.Context, runs *postgres.AnalysisRunStore, runID string) ([]string, error) {
	if runID != "" {
		return []string{runID}, nil
	}
	all, err := runs.List(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, r := range all {
		if r.Status == domain.RunStatusCompleted {
			ids = append(ids, r.RunID)
		}
	}
	return ids, nil
}

func printReport(runID string, r *verification.Report) {
	status := "OK"
	if !r.OK() {
		status = "DIVERGED"
	}
	fmt.Printf("%s: %s (%d days, %d matched, %d divergent, %d missing, %d extra)\n",
		runID, status, r.TotalDays, r.MatchedDays, r.DivergentDays, r.MissingDays, r.ExtraDays)

	for _, day := range r.Results {
		for _, d := range day.Divergences {
			fmt.Printf("  %s %s: expected %v, stored %v\n", day.Date, d.Field, d.Expected, d.Actual)
		}
	}
}
