package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTicker is used when the source data carries no ticker column.
const DefaultTicker = "Unknown"

// Trade is a normalized input trade. Immutable once produced by the
// normalizer; the simulator never mutates input trades.
// Corresponds to the trades table in PostgreSQL.
type Trade struct {
	EntryTime  time.Time       // calendar day, UTC midnight
	ExitTime   time.Time       // calendar day, strictly after EntryTime
	EntryPrice decimal.Decimal // strictly positive
	ExitPrice  decimal.Decimal // strictly positive
	Ticker     string          // informational only, "Unknown" when absent
}

// Position is a currently-open holding tracked by the simulator.
// Created when a trade's entry day is reached and at least one whole
// share is affordable; removed when its exit day is processed.
type Position struct {
	EntryDate  time.Time
	ExitDate   time.Time       // copied from the trade's ExitTime
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	Shares     int64           // whole shares, never fractional
	Cost       decimal.Decimal // Shares * EntryPrice at open
}

// Day truncates t to its calendar day at UTC midnight. All date
// comparisons in the simulator and recalculator are day-level.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day (UTC).
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}
