package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"cashlab/internal/domain"
	"cashlab/internal/storage"
)

// AnalysisRunStore implements storage.AnalysisRunStore using PostgreSQL.
type AnalysisRunStore struct {
	pool *Pool
}

// NewAnalysisRunStore creates a new AnalysisRunStore.
func NewAnalysisRunStore(pool *Pool) *AnalysisRunStore {
	return &AnalysisRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnalysisRunStore = (*AnalysisRunStore)(nil)

const analysisRunColumns = `
	run_id, label, status, starting_cash, allocation_fraction,
	benchmark_ticker, trade_count, dropped_rows, skipped_trades,
	first_date, last_date, final_portfolio, error, created_at, completed_at
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *AnalysisRunStore) Insert(ctx context.Context, run *domain.AnalysisRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO analysis_runs (` + analysisRunColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := s.pool.Exec(ctx, query,
		run.RunID, run.Label, run.Status, run.StartingCash, run.AllocationFraction,
		run.BenchmarkTicker, run.TradeCount, run.DroppedRows, run.SkippedTrades,
		nullableDate(run.FirstDate), nullableDate(run.LastDate),
		run.FinalPortfolio, run.Error, run.CreatedAt, nullableDate(run.CompletedAt),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert analysis run: %w", err)
	}
	return nil
}

// Update replaces a run's mutable fields. Returns ErrNotFound if run_id
// does not exist.
func (s *AnalysisRunStore) Update(ctx context.Context, run *domain.AnalysisRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE analysis_runs SET
			label = $2, status = $3, starting_cash = $4, allocation_fraction = $5,
			benchmark_ticker = $6, trade_count = $7, dropped_rows = $8, skipped_trades = $9,
			first_date = $10, last_date = $11, final_portfolio = $12, error = $13,
			completed_at = $14
		WHERE run_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		run.RunID, run.Label, run.Status, run.StartingCash, run.AllocationFraction,
		run.BenchmarkTicker, run.TradeCount, run.DroppedRows, run.SkippedTrades,
		nullableDate(run.FirstDate), nullableDate(run.LastDate),
		run.FinalPortfolio, run.Error, nullableDate(run.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("update analysis run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *AnalysisRunStore) GetByID(ctx context.Context, runID string) (*domain.AnalysisRun, error) {
	query := `SELECT ` + analysisRunColumns + ` FROM analysis_runs WHERE run_id = $1`

	row := s.pool.QueryRow(ctx, query, runID)
	run, err := scanAnalysisRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get analysis run by id: %w", err)
	}
	return run, nil
}

// List retrieves all runs, newest first.
func (s *AnalysisRunStore) List(ctx context.Context) ([]*domain.AnalysisRun, error) {
	query := `
		SELECT ` + analysisRunColumns + `
		FROM analysis_runs
		ORDER BY created_at DESC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.AnalysisRun
	for rows.Next() {
		run, err := scanAnalysisRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis run rows: %w", err)
	}
	return runs, nil
}

// scanAnalysisRun scans a single row into an AnalysisRun.
func scanAnalysisRun(row pgx.Row) (*domain.AnalysisRun, error) {
	var run domain.AnalysisRun
	var firstDate, lastDate, completedAt sql.NullTime

	err := row.Scan(
		&run.RunID, &run.Label, &run.Status, &run.StartingCash, &run.AllocationFraction,
		&run.BenchmarkTicker, &run.TradeCount, &run.DroppedRows, &run.SkippedTrades,
		&firstDate, &lastDate, &run.FinalPortfolio, &run.Error, &run.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if firstDate.Valid {
		run.FirstDate = firstDate.Time.UTC()
	}
	if lastDate.Valid {
		run.LastDate = lastDate.Time.UTC()
	}
	if completedAt.Valid {
		run.CompletedAt = completedAt.Time.UTC()
	}
	return &run, nil
}

// nullableDate maps the zero time to SQL NULL. Runs that have not
// finished yet have no completion time, and failed runs may never learn
// their date range.
func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
