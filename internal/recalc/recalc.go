// Package recalc rederives each trade's realized figures under the
// allocation rule, sized from the cash balance the simulator recorded
// for the trade's entry day.
package recalc

import (
	"errors"

	"github.com/shopspring/decimal"

	"cashlab/internal/domain"
	"cashlab/internal/lookup"
	"cashlab/internal/simulation"
)

// Options configures a recalculation pass.
type Options struct {
	// AllocationFraction must match the fraction the simulation ran
	// with. Zero means simulation.DefaultAllocationFraction.
	AllocationFraction decimal.Decimal
}

// Run produces one TradeResult per input trade, in input order. Trades
// whose entry day has no daily record are skipped and counted rather
// than failing the batch.
//
// CashAvailable is the entry day's end-of-day balance. When several
// trades enter the same day this overstates what the later entries
// actually saw, because the simulator debits them sequentially. The
// discrepancy is part of the published figures and is kept as is.
func Run(trades []domain.Trade, records []domain.DailyRecord, opts Options) ([]domain.TradeResult, int, error) {
	if len(trades) == 0 {
		return nil, 0, &domain.EmptyInputError{What: "trades"}
	}

	fraction := opts.AllocationFraction
	if fraction.IsZero() {
		fraction = simulation.DefaultAllocationFraction
	}
	if !fraction.IsPositive() || fraction.GreaterThan(decimal.NewFromInt(1)) {
		return nil, 0, &domain.InvalidParameterError{
			Param:  "allocationFraction",
			Reason: "must be in (0, 1]",
		}
	}

	idx, err := lookup.NewDailyIndex(records)
	if err != nil {
		return nil, 0, &domain.EmptyInputError{What: "daily records"}
	}

	results := make([]domain.TradeResult, 0, len(trades))
	skipped := 0

	for _, trade := range trades {
		record, err := idx.RecordOn(trade.EntryTime)
		if err != nil {
			var missing *domain.MissingDailyRecordError
			if errors.As(err, &missing) {
				skipped++
				continue
			}
			return nil, skipped, err
		}

		cashAvailable := record.CashBalance
		positionSize := cashAvailable.Mul(fraction)
		shares := affordableShares(positionSize, trade.EntryPrice)

		cost := decimal.NewFromInt(shares).Mul(trade.EntryPrice)
		proceeds := decimal.NewFromInt(shares).Mul(trade.ExitPrice)
		pnl := proceeds.Sub(cost)

		returnPct := 0.0
		if cost.IsPositive() {
			returnPct = pnl.Div(cost).InexactFloat64() * 100
		}

		results = append(results, domain.TradeResult{
			EntryDate:      domain.Day(trade.EntryTime),
			ExitDate:       domain.Day(trade.ExitTime),
			Ticker:         trade.Ticker,
			EntryPrice:     trade.EntryPrice,
			ExitPrice:      trade.ExitPrice,
			CashAvailable:  cashAvailable,
			PositionSize:   positionSize,
			ActualShares:   shares,
			ActualCost:     cost,
			ActualProceeds: proceeds,
			ActualPnL:      pnl,
			ReturnPct:      returnPct,
		})
	}

	return results, skipped, nil
}

// affordableShares mirrors the simulator's whole-share sizing.
func affordableShares(alloc, price decimal.Decimal) int64 {
	if !price.IsPositive() {
		return 0
	}
	q, _ := alloc.QuoRem(price, 0)
	return q.IntPart()
}
