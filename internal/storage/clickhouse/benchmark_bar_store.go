package clickhouse

import (
	"context"
	"fmt"
	"time"

	"cashlab/internal/domain"
	"cashlab/internal/storage"
)

// BenchmarkBarStore implements storage.BenchmarkBarStore using ClickHouse.
type BenchmarkBarStore struct {
	conn *Conn
}

// NewBenchmarkBarStore creates a new BenchmarkBarStore.
func NewBenchmarkBarStore(conn *Conn) *BenchmarkBarStore {
	return &BenchmarkBarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BenchmarkBarStore = (*BenchmarkBarStore)(nil)

// InsertBulk adds bars for a ticker. Fails the entire batch on
// duplicate (ticker, date).
func (s *BenchmarkBarStore) InsertBulk(ctx context.Context, ticker string, bars []domain.BenchmarkBar) error {
	if ticker == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[time.Time]struct{}, len(bars))
	for _, bar := range bars {
		day := domain.Day(bar.Date)
		if _, exists := seen[day]; exists {
			return storage.ErrDuplicateKey
		}
		seen[day] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, bar := range bars {
		exists, err := s.exists(ctx, ticker, domain.Day(bar.Date))
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO benchmark_bars (ticker, date, price)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, bar := range bars {
		if err := batch.Append(ticker, domain.Day(bar.Date), bar.Price); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTicker retrieves all bars for a ticker, ordered by date ASC.
func (s *BenchmarkBarStore) GetByTicker(ctx context.Context, ticker string) ([]domain.BenchmarkBar, error) {
	query := `
		SELECT date, price
		FROM benchmark_bars
		WHERE ticker = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("query benchmark bars by ticker: %w", err)
	}
	defer rows.Close()

	return scanBenchmarkBars(rows)
}

// GetByDateRange retrieves bars for a ticker within [start, end] (inclusive).
func (s *BenchmarkBarStore) GetByDateRange(ctx context.Context, ticker string, start, end time.Time) ([]domain.BenchmarkBar, error) {
	query := `
		SELECT date, price
		FROM benchmark_bars
		WHERE ticker = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, ticker, domain.Day(start), domain.Day(end))
	if err != nil {
		return nil, fmt.Errorf("query benchmark bars by date range: %w", err)
	}
	defer rows.Close()

	return scanBenchmarkBars(rows)
}

// exists checks if a bar with the given key exists.
func (s *BenchmarkBarStore) exists(ctx context.Context, ticker string, date time.Time) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM benchmark_bars WHERE ticker = ? AND date = ?`,
		ticker, date,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanBenchmarkBars scans multiple rows.
func scanBenchmarkBars(rows chRows) ([]domain.BenchmarkBar, error) {
	var bars []domain.BenchmarkBar

	for rows.Next() {
		var bar domain.BenchmarkBar
		if err := rows.Scan(&bar.Date, &bar.Price); err != nil {
			return nil, fmt.Errorf("scan benchmark bar row: %w", err)
		}
		bar.Date = domain.Day(bar.Date)
		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate benchmark bar rows: %w", err)
	}

	return bars, nil
}
