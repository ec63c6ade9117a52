package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashlab/internal/domain"
	"cashlab/internal/storage"
)

// insertTestRun satisfies the foreign key from trades and trade_results.
func insertTestRun(t *testing.T, ctx context.Context, pool *Pool, runID string) {
	t.Helper()
	store := NewAnalysisRunStore(pool)
	run := createTestRun(runID)
	require.NoError(t, store.Insert(ctx, run))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTradeStore_InsertBulkAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	insertTestRun(t, ctx, pool, "run-001")

	store := NewTradeStore(pool)

	trades := []domain.Trade{
		{EntryTime: day(2017, 1, 11), ExitTime: day(2017, 3, 14), EntryPrice: decimal.NewFromFloat(98.96), ExitPrice: decimal.NewFromFloat(109.07), Ticker: "AAPL"},
		{EntryTime: day(2017, 1, 17), ExitTime: day(2017, 3, 27), EntryPrice: decimal.NewFromFloat(37.75), ExitPrice: decimal.NewFromFloat(37.49), Ticker: "GNRC"},
		{EntryTime: day(2017, 1, 18), ExitTime: day(2017, 2, 6), EntryPrice: decimal.NewFromFloat(9.88), ExitPrice: decimal.NewFromFloat(13.63), Ticker: "AMD"},
	}

	require.NoError(t, store.InsertBulk(ctx, "run-001", trades))

	retrieved, err := store.GetByRunID(ctx, "run-001")
	require.NoError(t, err)
	require.Len(t, retrieved, 3)

	// Input order, not alphabetical
	assert.Equal(t, "AAPL", retrieved[0].Ticker)
	assert.Equal(t, "GNRC", retrieved[1].Ticker)
	assert.Equal(t, "AMD", retrieved[2].Ticker)

	assert.True(t, retrieved[0].EntryTime.Equal(day(2017, 1, 11)))
	assert.True(t, retrieved[0].EntryPrice.Equal(decimal.NewFromFloat(98.96)),
		"EntryPrice: got %s", retrieved[0].EntryPrice)
	assert.True(t, retrieved[2].ExitPrice.Equal(decimal.NewFromFloat(13.63)),
		"ExitPrice: got %s", retrieved[2].ExitPrice)
}

func TestTradeStore_DuplicateRun(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	insertTestRun(t, ctx, pool, "run-001")

	store := NewTradeStore(pool)

	trades := []domain.Trade{
		{EntryTime: day(2017, 1, 11), ExitTime: day(2017, 1, 12), EntryPrice: decimal.NewFromInt(100), ExitPrice: decimal.NewFromInt(101)},
	}

	require.NoError(t, store.InsertBulk(ctx, "run-001", trades))

	err := store.InsertBulk(ctx, "run-001", trades)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeStore_GetByRunIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	_, err := store.GetByRunID(ctx, "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeResultStore_InsertBulkAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	insertTestRun(t, ctx, pool, "run-001")

	store := NewTradeResultStore(pool)

	results := []domain.TradeResult{
		{
			EntryDate:      day(2017, 1, 11),
			ExitDate:       day(2017, 3, 14),
			Ticker:         "AAPL",
			EntryPrice:     decimal.NewFromFloat(98.96),
			ExitPrice:      decimal.NewFromFloat(109.07),
			CashAvailable:  decimal.NewFromInt(10000),
			PositionSize:   decimal.NewFromInt(1000),
			ActualShares:   10,
			ActualCost:     decimal.NewFromFloat(989.60),
			ActualProceeds: decimal.NewFromFloat(1090.70),
			ActualPnL:      decimal.NewFromFloat(101.10),
			ReturnPct:      10.216249,
		},
		{
			EntryDate:    day(2017, 1, 17),
			ExitDate:     day(2017, 3, 27),
			Ticker:       "GNRC",
			EntryPrice:   decimal.NewFromFloat(37.75),
			ExitPrice:    decimal.NewFromFloat(37.49),
			ActualShares: 0,
			ReturnPct:    0,
		},
	}

	require.NoError(t, store.InsertBulk(ctx, "run-001", results))

	retrieved, err := store.GetByRunID(ctx, "run-001")
	require.NoError(t, err)
	require.Len(t, retrieved, 2)

	assert.Equal(t, "AAPL", retrieved[0].Ticker)
	assert.Equal(t, int64(10), retrieved[0].ActualShares)
	assert.True(t, retrieved[0].ActualPnL.Equal(decimal.NewFromFloat(101.10)),
		"ActualPnL: got %s", retrieved[0].ActualPnL)
	assert.InDelta(t, 10.216249, retrieved[0].ReturnPct, 0.0001)

	assert.Equal(t, "GNRC", retrieved[1].Ticker)
	assert.Equal(t, int64(0), retrieved[1].ActualShares)
	assert.Zero(t, retrieved[1].ReturnPct)
}

func TestTradeResultStore_DuplicateRun(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	insertTestRun(t, ctx, pool, "run-001")

	store := NewTradeResultStore(pool)

	results := []domain.TradeResult{
		{EntryDate: day(2017, 1, 11), ExitDate: day(2017, 1, 12), Ticker: "AAPL"},
	}

	require.NoError(t, store.InsertBulk(ctx, "run-001", results))

	err := store.InsertBulk(ctx, "run-001", results)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeResultStore_GetByRunIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeResultStore(pool)

	_, err := store.GetByRunID(ctx, "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
