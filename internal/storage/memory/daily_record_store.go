package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"cashlab/internal/domain"
	"cashlab/internal/storage"
)

// DailyRecordStore is an in-memory implementation of storage.DailyRecordStore.
type DailyRecordStore struct {
	mu   sync.RWMutex
	data map[string]map[time.Time]domain.DailyRecord // run_id -> date -> record
}

// NewDailyRecordStore creates a new in-memory daily record store.
func NewDailyRecordStore() *DailyRecordStore {
	return &DailyRecordStore{
		data: make(map[string]map[time.Time]domain.DailyRecord),
	}
}

var _ storage.DailyRecordStore = (*DailyRecordStore)(nil)

// InsertBulk adds a run's daily records. Fails the entire batch on a
// duplicate (run_id, date).
func (s *DailyRecordStore) InsertBulk(_ context.Context, runID string, records []domain.DailyRecord) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byDate, exists := s.data[runID]
	if !exists {
		byDate = make(map[time.Time]domain.DailyRecord, len(records))
		s.data[runID] = byDate
	}

	// Validate the whole batch before mutating.
	seen := make(map[time.Time]bool, len(records))
	for _, rec := range records {
		day := domain.Day(rec.Date)
		if _, dup := byDate[day]; dup {
			return storage.ErrDuplicateKey
		}
		if seen[day] {
			return storage.ErrDuplicateKey
		}
		seen[day] = true
	}

	for _, rec := range records {
		rec.Date = domain.Day(rec.Date)
		byDate[rec.Date] = rec
	}
	return nil
}

// GetByRunID retrieves all records for a run, ordered by date ASC.
func (s *DailyRecordStore) GetByRunID(_ context.Context, runID string) ([]domain.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDate, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return sortedRecords(byDate, nil), nil
}

// GetByDateRange retrieves records for a run within [start, end] inclusive,
// ordered by date ASC.
func (s *DailyRecordStore) GetByDateRange(_ context.Context, runID string, start, end time.Time) ([]domain.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDate, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	startDay, endDay := domain.Day(start), domain.Day(end)
	return sortedRecords(byDate, func(day time.Time) bool {
		return !day.Before(startDay) && !day.After(endDay)
	}), nil
}

func sortedRecords(byDate map[time.Time]domain.DailyRecord, keep func(time.Time) bool) []domain.DailyRecord {
	records := make([]domain.DailyRecord, 0, len(byDate))
	for day, rec := range byDate {
		if keep != nil && !keep(day) {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records
}
