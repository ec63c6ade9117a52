// Command simulate runs the cash-constrained simulation over a trade
// export and prints the resulting series as CSV, with no databases and
// no report files. It is the quick what-if tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"cashlab/internal/domain"
	"cashlab/internal/ingestion"
	"cashlab/internal/pipeline"
	"cashlab/internal/recalc"
	"cashlab/internal/reporting"
	"cashlab/internal/simulation"
)

func main() {
	_ = godotenv.Load()

	tradesPath := flag.String("trades", "", "Trade export to simulate (CSV, Excel, or HTML)")
	useFixtures := flag.Bool("use-fixtures", false, "Use the built-in sample trades")
	startingCash := flag.String("starting-cash", "10000", "Starting cash balance")
	allocationFraction := flag.Float64("allocation-fraction", 0.10, "Fraction of cash allocated per entry")
	showResults := flag.Bool("results", false, "Print per-trade results instead of the daily series")
	flag.Parse()

	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags)

	if !*useFixtures && *tradesPath == "" {
		logger.Fatal("either --trades or --use-fixtures is required")
	}

	cash, err := decimal.NewFromString(*startingCash)
	if err != nil {
		logger.Fatalf("invalid --starting-cash %q: %v", *startingCash, err)
	}
	fraction := decimal.NewFromFloat(*allocationFraction)

	ctx := context.Background()

	var trades []domain.Trade
	if *useFixtures {
		trades = pipeline.SampleTrades()
	} else {
		var dropped int
		trades, dropped, err = loadTrades(ctx, *tradesPath)
		if err != nil {
			logger.Fatalf("load trades: %v", err)
		}
		if dropped > 0 {
			logger.Printf("dropped %d unusable rows", dropped)
		}
	}

	records, _, err := simulation.Run(trades, cash, simulation.Options{AllocationFraction: fraction})
	if err != nil {
		logger.Fatalf("simulation failed: %v", err)
	}

	if !*showResults {
		fmt.Print(reporting.RenderDailyRecordsCSV(records))
		return
	}

	results, skipped, err := recalc.Run(trades, records, recalc.Options{AllocationFraction: fraction})
	if err != nil {
		logger.Fatalf("recalculation failed: %v", err)
	}
	if skipped > 0 {
		logger.Printf("skipped %d trades with no matching daily record", skipped)
	}
	fmt.Print(reporting.RenderTradeResultsCSV(results))
}

func loadTrades(ctx context.Context, path string) ([]domain.Trade, int, error) {
	trades, dropped, err := ingestion.LoadTrades(ctx, path)
	if err != nil {
		return nil, 0, err
	}
	return trades, dropped.Total(), nil
}
