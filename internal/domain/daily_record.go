package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyRecord is one day of the simulated cash trajectory.
// Corresponds to the daily_records table in ClickHouse.
type DailyRecord struct {
	Date            time.Time       // calendar day, UTC midnight
	CashBalance     decimal.Decimal // cash after the day's exits and entries
	ActivePositions int             // open positions at end of day
	PositionValue   decimal.Decimal // sum of shares * entry price over open positions
	TotalPortfolio  decimal.Decimal // CashBalance + PositionValue
}

// BenchmarkBar is one raw price observation of the benchmark series.
// Corresponds to the benchmark_bars table in ClickHouse.
type BenchmarkBar struct {
	Date  time.Time
	Price decimal.Decimal
}

// BenchmarkDaily is one day of the buy-and-hold portfolio built from the
// benchmark series. Unlike DailyRecord, PositionValue here is
// mark-to-market: the benchmark's own price series values the holding.
type BenchmarkDaily struct {
	Date           time.Time
	CashBalance    decimal.Decimal
	PositionValue  decimal.Decimal
	TotalPortfolio decimal.Decimal
	Price          decimal.Decimal
}
