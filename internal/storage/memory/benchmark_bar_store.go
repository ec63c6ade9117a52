package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"cashlab/internal/domain"
	"cashlab/internal/storage"
)

// BenchmarkBarStore is an in-memory implementation of storage.BenchmarkBarStore.
type BenchmarkBarStore struct {
	mu   sync.RWMutex
	data map[string]map[time.Time]domain.BenchmarkBar // ticker -> date -> bar
}

// NewBenchmarkBarStore creates a new in-memory benchmark bar store.
func NewBenchmarkBarStore() *BenchmarkBarStore {
	return &BenchmarkBarStore{
		data: make(map[string]map[time.Time]domain.BenchmarkBar),
	}
}

var _ storage.BenchmarkBarStore = (*BenchmarkBarStore)(nil)

// InsertBulk adds bars for a ticker. Fails the entire batch on a
// duplicate (ticker, date).
func (s *BenchmarkBarStore) InsertBulk(_ context.Context, ticker string, bars []domain.BenchmarkBar) error {
	if ticker == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byDate, exists := s.data[ticker]
	if !exists {
		byDate = make(map[time.Time]domain.BenchmarkBar, len(bars))
		s.data[ticker] = byDate
	}

	seen := make(map[time.Time]bool, len(bars))
	for _, bar := range bars {
		day := domain.Day(bar.Date)
		if _, dup := byDate[day]; dup {
			return storage.ErrDuplicateKey
		}
		if seen[day] {
			return storage.ErrDuplicateKey
		}
		seen[day] = true
	}

	for _, bar := range bars {
		bar.Date = domain.Day(bar.Date)
		byDate[bar.Date] = bar
	}
	return nil
}

// GetByTicker retrieves all bars for a ticker, ordered by date ASC.
func (s *BenchmarkBarStore) GetByTicker(_ context.Context, ticker string) ([]domain.BenchmarkBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDate, exists := s.data[ticker]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return sortedBars(byDate, nil), nil
}

// GetByDateRange retrieves bars for a ticker within [start, end] inclusive,
// ordered by date ASC.
func (s *BenchmarkBarStore) GetByDateRange(_ context.Context, ticker string, start, end time.Time) ([]domain.BenchmarkBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDate, exists := s.data[ticker]
	if !exists {
		return nil, storage.ErrNotFound
	}

	startDay, endDay := domain.Day(start), domain.Day(end)
	return sortedBars(byDate, func(day time.Time) bool {
		return !day.Before(startDay) && !day.After(endDay)
	}), nil
}

func sortedBars(byDate map[time.Time]domain.BenchmarkBar, keep func(time.Time) bool) []domain.BenchmarkBar {
	bars := make([]domain.BenchmarkBar, 0, len(byDate))
	for day, bar := range byDate {
		if keep != nil && !keep(day) {
			continue
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars
}
