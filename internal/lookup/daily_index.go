// Package lookup provides date-keyed access to daily series.
package lookup

import (
	"errors"
	"time"

	"cashlab/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrNoDailyRecords = errors.New("no daily records available")
)

// DailyIndex maps calendar days to their DailyRecord for O(1) entry-date
// lookups by the recalculator and the verifier.
type DailyIndex struct {
	byDay map[time.Time]domain.DailyRecord
	first time.Time
	last  time.Time
}

// NewDailyIndex builds an index over the given records. When the same day
// appears more than once the first occurrence wins, matching the
// simulator's one-record-per-day contract.
func NewDailyIndex(records []domain.DailyRecord) (*DailyIndex, error) {
	if len(records) == 0 {
		return nil, ErrNoDailyRecords
	}

	idx := &DailyIndex{
		byDay: make(map[time.Time]domain.DailyRecord, len(records)),
		first: domain.Day(records[0].Date),
		last:  domain.Day(records[0].Date),
	}
	for _, r := range records {
		d := domain.Day(r.Date)
		if _, exists := idx.byDay[d]; !exists {
			idx.byDay[d] = r
		}
		if d.Before(idx.first) {
			idx.first = d
		}
		if d.After(idx.last) {
			idx.last = d
		}
	}
	return idx, nil
}

// RecordOn returns the record for the calendar day of t.
// Returns MissingDailyRecordError when the day is not covered.
func (idx *DailyIndex) RecordOn(t time.Time) (domain.DailyRecord, error) {
	r, exists := idx.byDay[domain.Day(t)]
	if !exists {
		return domain.DailyRecord{}, &domain.MissingDailyRecordError{EntryDate: domain.Day(t)}
	}
	return r, nil
}

// Range returns the first and last indexed days.
func (idx *DailyIndex) Range() (first, last time.Time) {
	return idx.first, idx.last
}

// FilterBars returns the benchmark bars whose calendar day falls inside
// [start, end], preserving input order.
func FilterBars(bars []domain.BenchmarkBar, start, end time.Time) []domain.BenchmarkBar {
	startDay := domain.Day(start)
	endDay := domain.Day(end)

	var out []domain.BenchmarkBar
	for _, b := range bars {
		d := domain.Day(b.Date)
		if d.Before(startDay) || d.After(endDay) {
			continue
		}
		out = append(out, b)
	}
	return out
}
