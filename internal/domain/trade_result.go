package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeResult is the recalculator's verdict on one input trade: what the
// trade actually did under the allocation rule, sized from the cash
// balance recorded for its entry day.
// Corresponds to the trade_results table in PostgreSQL.
type TradeResult struct {
	EntryDate      time.Time
	ExitDate       time.Time
	Ticker         string
	EntryPrice     decimal.Decimal
	ExitPrice      decimal.Decimal
	CashAvailable  decimal.Decimal // post-entry-day balance, see recalc package
	PositionSize   decimal.Decimal // CashAvailable * allocation fraction
	ActualShares   int64           // floor(PositionSize / EntryPrice)
	ActualCost     decimal.Decimal
	ActualProceeds decimal.Decimal
	ActualPnL      decimal.Decimal
	ReturnPct      float64 // 100 * pnl / cost, 0 when cost is zero
}
