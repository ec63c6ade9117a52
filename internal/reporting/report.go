// Package reporting renders analysis outputs: canonical CSVs, the
// markdown report, and Arrow IPC files for dataframe consumers.
package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"cashlab/internal/domain"
)

// Report is the full analysis report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	Label       string

	Summary RunSummary

	// Benchmark comparison; nil when no benchmark was supplied.
	Comparison *domain.ComparisonMetrics

	// Verdict is the one-line outcome, empty without a benchmark.
	Verdict string
}

// RunSummary describes what the simulation and recalculation did.
type RunSummary struct {
	StartingCash       decimal.Decimal
	FinalPortfolio     decimal.Decimal
	TotalReturnPct     float64
	TotalPnL           decimal.Decimal
	FirstDate          time.Time
	LastDate           time.Time
	TradingDays        int
	TradeCount         int
	ExecutedTrades     int // trades that bought at least one share
	WinningTrades      int
	TradeWinRatePct    float64
	SkippedTrades      int
	DroppedRows        int
	AllocationFraction decimal.Decimal
	BenchmarkTicker    string
}
