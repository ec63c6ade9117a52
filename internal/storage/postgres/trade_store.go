package postgres

import (
	"context"
	"fmt"

	"cashlab/internal/domain"
	"cashlab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL. Trades carry
// no natural key, so each row stores its position in the input file and
// reads restore that order.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds a run's trades atomically, preserving input order.
// Returns ErrDuplicateKey if the run already has trades.
func (s *TradeStore) InsertBulk(ctx context.Context, runID string, trades []domain.Trade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var existing int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM trades WHERE run_id = $1`, runID).Scan(&existing); err != nil {
		return fmt.Errorf("check existing trades: %w", err)
	}
	if existing > 0 {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO trades (run_id, seq, entry_time, exit_time, entry_price, exit_price, ticker)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for i, t := range trades {
		_, err := tx.Exec(ctx, query,
			runID, i, t.EntryTime, t.ExitTime, t.EntryPrice, t.ExitPrice, t.Ticker,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRunID retrieves a run's trades in their original input order.
// Returns ErrNotFound if the run has no trades.
func (s *TradeStore) GetByRunID(ctx context.Context, runID string) ([]domain.Trade, error) {
	query := `
		SELECT entry_time, exit_time, entry_price, exit_price, ticker
		FROM trades
		WHERE run_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get trades by run id: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(&t.EntryTime, &t.ExitTime, &t.EntryPrice, &t.ExitPrice, &t.Ticker); err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		t.EntryTime = t.EntryTime.UTC()
		t.ExitTime = t.ExitTime.UTC()
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	if len(trades) == 0 {
		return nil, storage.ErrNotFound
	}
	return trades, nil
}
