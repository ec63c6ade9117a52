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

func createTestRun(runID string) *domain.AnalysisRun {
	return &domain.AnalysisRun{
		RunID:              runID,
		Label:              "8x4QmVfw",
		Status:             domain.RunStatusPending,
		StartingCash:       decimal.NewFromInt(10000),
		AllocationFraction: decimal.NewFromFloat(0.10),
		BenchmarkTicker:    "SPY",
		CreatedAt:          time.Date(2023, 6, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestAnalysisRunStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAnalysisRunStore(pool)

	run := createTestRun("run-001")
	require.NoError(t, store.Insert(ctx, run))

	retrieved, err := store.GetByID(ctx, "run-001")
	require.NoError(t, err)

	assert.Equal(t, run.RunID, retrieved.RunID)
	assert.Equal(t, run.Label, retrieved.Label)
	assert.Equal(t, domain.RunStatusPending, retrieved.Status)
	assert.True(t, retrieved.StartingCash.Equal(decimal.NewFromInt(10000)),
		"StartingCash: got %s", retrieved.StartingCash)
	assert.True(t, retrieved.AllocationFraction.Equal(decimal.NewFromFloat(0.10)),
		"AllocationFraction: got %s", retrieved.AllocationFraction)
	assert.Equal(t, "SPY", retrieved.BenchmarkTicker)
	assert.True(t, retrieved.FirstDate.IsZero(), "FirstDate should be zero before completion")
	assert.True(t, retrieved.CompletedAt.IsZero(), "CompletedAt should be zero before completion")
}

func TestAnalysisRunStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAnalysisRunStore(pool)

	run := createTestRun("run-001")
	require.NoError(t, store.Insert(ctx, run))

	err := store.Insert(ctx, run)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestAnalysisRunStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAnalysisRunStore(pool)

	_, err := store.GetByID(ctx, "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAnalysisRunStore_Update(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAnalysisRunStore(pool)

	run := createTestRun("run-001")
	require.NoError(t, store.Insert(ctx, run))

	run.Status = domain.RunStatusCompleted
	run.TradeCount = 5
	run.SkippedTrades = 1
	run.FirstDate = time.Date(2017, 1, 11, 0, 0, 0, 0, time.UTC)
	run.LastDate = time.Date(2017, 4, 15, 0, 0, 0, 0, time.UTC)
	run.FinalPortfolio = decimal.NewFromFloat(10243.87)
	run.CompletedAt = time.Date(2023, 6, 1, 9, 31, 0, 0, time.UTC)

	require.NoError(t, store.Update(ctx, run))

	retrieved, err := store.GetByID(ctx, "run-001")
	require.NoError(t, err)

	assert.Equal(t, domain.RunStatusCompleted, retrieved.Status)
	assert.Equal(t, 5, retrieved.TradeCount)
	assert.Equal(t, 1, retrieved.SkippedTrades)
	assert.True(t, retrieved.FirstDate.Equal(run.FirstDate))
	assert.True(t, retrieved.LastDate.Equal(run.LastDate))
	assert.True(t, retrieved.FinalPortfolio.Equal(decimal.NewFromFloat(10243.87)),
		"FinalPortfolio: got %s", retrieved.FinalPortfolio)
	assert.False(t, retrieved.CompletedAt.IsZero())
}

func TestAnalysisRunStore_UpdateNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAnalysisRunStore(pool)

	err := store.Update(ctx, createTestRun("ghost"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAnalysisRunStore_ListNewestFirst(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAnalysisRunStore(pool)

	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-old", "run-mid", "run-new"} {
		run := createTestRun(id)
		run.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.Insert(ctx, run))
	}

	runs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	assert.Equal(t, "run-new", runs[0].RunID)
	assert.Equal(t, "run-mid", runs[1].RunID)
	assert.Equal(t, "run-old", runs[2].RunID)
}

func TestAnalysisRunStore_FailedRunKeepsError(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAnalysisRunStore(pool)

	run := createTestRun("run-001")
	require.NoError(t, store.Insert(ctx, run))

	run.Status = domain.RunStatusFailed
	run.Error = "no overlapping dates between strategy and benchmark"
	run.CompletedAt = time.Now().UTC()
	require.NoError(t, store.Update(ctx, run))

	retrieved, err := store.GetByID(ctx, "run-001")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, retrieved.Status)
	assert.Equal(t, "no overlapping dates between strategy and benchmark", retrieved.Error)
}
