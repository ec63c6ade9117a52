package clickhouse

import (
	"context"
	"fmt"
	"time"

	"cashlab/internal/domain"
	"cashlab/internal/storage"
)

// DailyRecordStore implements storage.DailyRecordStore using ClickHouse.
type DailyRecordStore struct {
	conn *Conn
}

// NewDailyRecordStore creates a new DailyRecordStore.
func NewDailyRecordStore(conn *Conn) *DailyRecordStore {
	return &DailyRecordStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DailyRecordStore = (*DailyRecordStore)(nil)

// InsertBulk adds a run's daily records. MergeTree does not enforce
// uniqueness, so duplicates are detected by explicit checks before the
// batch is sent. Fails the entire batch on duplicate (run_id, date).
func (s *DailyRecordStore) InsertBulk(ctx context.Context, runID string, records []domain.DailyRecord) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(records) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[time.Time]struct{}, len(records))
	for _, rec := range records {
		day := domain.Day(rec.Date)
		if _, exists := seen[day]; exists {
			return storage.ErrDuplicateKey
		}
		seen[day] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM daily_records WHERE run_id = ?`, runID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check existing daily records: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO daily_records (
			run_id, date, cash_balance, active_positions, position_value, total_portfolio
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, rec := range records {
		err = batch.Append(
			runID, domain.Day(rec.Date), rec.CashBalance,
			uint32(rec.ActivePositions), rec.PositionValue, rec.TotalPortfolio,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRunID retrieves all records for a run, ordered by date ASC.
func (s *DailyRecordStore) GetByRunID(ctx context.Context, runID string) ([]domain.DailyRecord, error) {
	query := `
		SELECT date, cash_balance, active_positions, position_value, total_portfolio
		FROM daily_records
		WHERE run_id = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query daily records by run id: %w", err)
	}
	defer rows.Close()

	return scanDailyRecords(rows)
}

// GetByDateRange retrieves records for a run within [start, end] (inclusive).
func (s *DailyRecordStore) GetByDateRange(ctx context.Context, runID string, start, end time.Time) ([]domain.DailyRecord, error) {
	query := `
		SELECT date, cash_balance, active_positions, position_value, total_portfolio
		FROM daily_records
		WHERE run_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, domain.Day(start), domain.Day(end))
	if err != nil {
		return nil, fmt.Errorf("query daily records by date range: %w", err)
	}
	defer rows.Close()

	return scanDailyRecords(rows)
}

// scanDailyRecords scans multiple rows.
func scanDailyRecords(rows chRows) ([]domain.DailyRecord, error) {
	var records []domain.DailyRecord

	for rows.Next() {
		var rec domain.DailyRecord
		var activePositions uint32

		err := rows.Scan(
			&rec.Date, &rec.CashBalance, &activePositions,
			&rec.PositionValue, &rec.TotalPortfolio,
		)
		if err != nil {
			return nil, fmt.Errorf("scan daily record row: %w", err)
		}

		rec.Date = domain.Day(rec.Date)
		rec.ActivePositions = int(activePositions)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily record rows: %w", err)
	}

	return records, nil
}
