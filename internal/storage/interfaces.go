package storage

import (
	"context"
	"time"

	"cashlab/internal/domain"
)

// AnalysisRunStore provides access to analysis_runs storage.
type AnalysisRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, run *domain.AnalysisRun) error

	// Update replaces a run's mutable fields (status, counters, error,
	// completion time). Returns ErrNotFound if run_id does not exist.
	Update(ctx context.Context, run *domain.AnalysisRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.AnalysisRun, error)

	// List retrieves all runs, newest first.
	List(ctx context.Context) ([]*domain.AnalysisRun, error)
}

// TradeStore provides access to normalized input trades per run.
type TradeStore interface {
	// InsertBulk adds a run's trades atomically, preserving input order.
	// Returns ErrDuplicateKey if the run already has trades.
	InsertBulk(ctx context.Context, runID string, trades []domain.Trade) error

	// GetByRunID retrieves a run's trades in their original input order.
	GetByRunID(ctx context.Context, runID string) ([]domain.Trade, error)
}

// TradeResultStore provides access to recalculated trade results per run.
type TradeResultStore interface {
	// InsertBulk adds a run's results atomically, preserving input order.
	// Returns ErrDuplicateKey if the run already has results.
	InsertBulk(ctx context.Context, runID string, results []domain.TradeResult) error

	// GetByRunID retrieves a run's results in their original input order.
	GetByRunID(ctx context.Context, runID string) ([]domain.TradeResult, error)
}

// DailyRecordStore provides access to the daily cash trajectory per run.
type DailyRecordStore interface {
	// InsertBulk adds a run's daily records. Fails entire batch on
	// duplicate (run_id, date).
	InsertBulk(ctx context.Context, runID string, records []domain.DailyRecord) error

	// GetByRunID retrieves all records for a run, ordered by date ASC.
	GetByRunID(ctx context.Context, runID string) ([]domain.DailyRecord, error)

	// GetByDateRange retrieves records for a run within [start, end]
	// (inclusive), ordered by date ASC.
	GetByDateRange(ctx context.Context, runID string, start, end time.Time) ([]domain.DailyRecord, error)
}

// BenchmarkBarStore provides access to benchmark price series by ticker.
type BenchmarkBarStore interface {
	// InsertBulk adds bars for a ticker. Fails entire batch on
	// duplicate (ticker, date).
	InsertBulk(ctx context.Context, ticker string, bars []domain.BenchmarkBar) error

	// GetByTicker retrieves all bars for a ticker, ordered by date ASC.
	GetByTicker(ctx context.Context, ticker string) ([]domain.BenchmarkBar, error)

	// GetByDateRange retrieves bars for a ticker within [start, end]
	// (inclusive), ordered by date ASC.
	GetByDateRange(ctx context.Context, ticker string, start, end time.Time) ([]domain.BenchmarkBar, error)
}
