package memory

import (
	"context"
	"sync"

	"cashlab/internal/domain"
	"cashlab/internal/storage"
)

// TradeResultStore is an in-memory implementation of storage.TradeResultStore.
type TradeResultStore struct {
	mu   sync.RWMutex
	data map[string][]domain.TradeResult // keyed by run_id, input order preserved
}

// NewTradeResultStore creates a new in-memory trade result store.
func NewTradeResultStore() *TradeResultStore {
	return &TradeResultStore{
		data: make(map[string][]domain.TradeResult),
	}
}

var _ storage.TradeResultStore = (*TradeResultStore)(nil)

// InsertBulk adds a run's results atomically, preserving input order.
// Returns ErrDuplicateKey if the run already has results.
func (s *TradeResultStore) InsertBulk(_ context.Context, runID string, results []domain.TradeResult) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}

	copied := make([]domain.TradeResult, len(results))
	copy(copied, results)
	s.data[runID] = copied
	return nil
}

// GetByRunID retrieves a run's results in their original input order.
func (s *TradeResultStore) GetByRunID(_ context.Context, runID string) ([]domain.TradeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copied := make([]domain.TradeResult, len(results))
	copy(copied, results)
	return copied, nil
}
