package memory

import (
	"context"
	"sync"

	"cashlab/internal/domain"
	"cashlab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string][]domain.Trade // keyed by run_id, input order preserved
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string][]domain.Trade),
	}
}

var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds a run's trades atomically, preserving input order.
// Returns ErrDuplicateKey if the run already has trades.
func (s *TradeStore) InsertBulk(_ context.Context, runID string, trades []domain.Trade) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}

	copied := make([]domain.Trade, len(trades))
	copy(copied, trades)
	s.data[runID] = copied
	return nil
}

// GetByRunID retrieves a run's trades in their original input order.
func (s *TradeStore) GetByRunID(_ context.Context, runID string) ([]domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copied := make([]domain.Trade, len(trades))
	copy(copied, trades)
	return copied, nil
}
