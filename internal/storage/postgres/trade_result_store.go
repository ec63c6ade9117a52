package postgres

import (
	"context"
	"fmt"

	"cashlab/internal/domain"
	"cashlab/internal/storage"
)

// TradeResultStore implements storage.TradeResultStore using PostgreSQL.
type TradeResultStore struct {
	pool *Pool
}

// NewTradeResultStore creates a new TradeResultStore.
func NewTradeResultStore(pool *Pool) *TradeResultStore {
	return &TradeResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeResultStore = (*TradeResultStore)(nil)

// InsertBulk adds a run's results atomically, preserving input order.
// Returns ErrDuplicateKey if the run already has results.
func (s *TradeResultStore) InsertBulk(ctx context.Context, runID string, results []domain.TradeResult) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var existing int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM trade_results WHERE run_id = $1`, runID).Scan(&existing); err != nil {
		return fmt.Errorf("check existing trade results: %w", err)
	}
	if existing > 0 {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO trade_results (
			run_id, seq, entry_date, exit_date, ticker,
			entry_price, exit_price, cash_available, position_size,
			actual_shares, actual_cost, actual_proceeds, actual_pnl, return_pct
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14
		)
	`

	for i, r := range results {
		_, err := tx.Exec(ctx, query,
			runID, i, r.EntryDate, r.ExitDate, r.Ticker,
			r.EntryPrice, r.ExitPrice, r.CashAvailable, r.PositionSize,
			r.ActualShares, r.ActualCost, r.ActualProceeds, r.ActualPnL, r.ReturnPct,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade result in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRunID retrieves a run's results in their original input order.
// Returns ErrNotFound if the run has no results.
func (s *TradeResultStore) GetByRunID(ctx context.Context, runID string) ([]domain.TradeResult, error) {
	query := `
		SELECT
			entry_date, exit_date, ticker,
			entry_price, exit_price, cash_available, position_size,
			actual_shares, actual_cost, actual_proceeds, actual_pnl, return_pct
		FROM trade_results
		WHERE run_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get trade results by run id: %w", err)
	}
	defer rows.Close()

	var results []domain.TradeResult
	for rows.Next() {
		var r domain.TradeResult
		err := rows.Scan(
			&r.EntryDate, &r.ExitDate, &r.Ticker,
			&r.EntryPrice, &r.ExitPrice, &r.CashAvailable, &r.PositionSize,
			&r.ActualShares, &r.ActualCost, &r.ActualProceeds, &r.ActualPnL, &r.ReturnPct,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade result row: %w", err)
		}
		r.EntryDate = r.EntryDate.UTC()
		r.ExitDate = r.ExitDate.UTC()
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade result rows: %w", err)
	}

	if len(results) == 0 {
		return nil, storage.ErrNotFound
	}
	return results, nil
}
