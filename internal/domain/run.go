package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Run status constants
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// AnalysisRun records one end-to-end analysis: its inputs, the dataset
// fingerprint, and summary counters filled in as phases complete.
// Corresponds to the analysis_runs table in PostgreSQL.
type AnalysisRun struct {
	RunID              string // PRIMARY KEY, uuid
	Label              string // short base58 dataset fingerprint
	Status             string // pending | running | completed | failed
	StartingCash       decimal.Decimal
	AllocationFraction decimal.Decimal
	BenchmarkTicker    string // empty when no benchmark was supplied
	TradeCount         int    // trades after normalization
	DroppedRows        int    // rows the normalizer rejected
	SkippedTrades      int    // trades without a matching daily record
	FirstDate          time.Time
	LastDate           time.Time
	FinalPortfolio     decimal.Decimal
	Error              string // failure message when Status is failed
	CreatedAt          time.Time
	CompletedAt        time.Time // zero until the run finishes
}
