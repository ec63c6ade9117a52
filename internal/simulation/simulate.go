// Package simulation implements the daily cash-balance state machine.
// Each new position is funded with a fixed fraction of the cash available
// on its entry day; exits are processed before entries so freed capital
// is visible to same-day re-entries.
package simulation

import (
	"sort"

	"github.com/shopspring/decimal"

	"cashlab/internal/domain"
)

// DefaultAllocationFraction is the share of available cash committed to
// each new position when the caller does not override it.
var DefaultAllocationFraction = decimal.NewFromFloat(0.10)

// Options configures a simulation run.
type Options struct {
	// AllocationFraction must be in (0, 1]. Zero means DefaultAllocationFraction.
	AllocationFraction decimal.Decimal
}

// Run walks every calendar day from the earliest entry to the latest exit
// and produces one DailyRecord per day plus the positions still open after
// the final day.
//
// Per-day order is fixed:
//  1. Carry the previous day's ending cash (startingCash on day 0)
//  2. Exits: credit shares * exit price, drop the position
//  3. Entries in stable entry-time order: alloc = cash * fraction,
//     shares = floor(alloc / entry price); debit and open only when
//     shares >= 1, otherwise skip with cash unchanged
//  4. Emit the record with PositionValue summed at entry prices
//
// Pure function: identical inputs produce identical output.
func Run(trades []domain.Trade, startingCash decimal.Decimal, opts Options) ([]domain.DailyRecord, []domain.Position, error) {
	if len(trades) == 0 {
		return nil, nil, &domain.EmptyInputError{What: "trades"}
	}
	if !startingCash.IsPositive() {
		return nil, nil, &domain.InvalidParameterError{
			Param:  "startingCash",
			Reason: "must be positive",
		}
	}

	fraction := opts.AllocationFraction
	if fraction.IsZero() {
		fraction = DefaultAllocationFraction
	}
	if !fraction.IsPositive() || fraction.GreaterThan(decimal.NewFromInt(1)) {
		return nil, nil, &domain.InvalidParameterError{
			Param:  "allocationFraction",
			Reason: "must be in (0, 1]",
		}
	}

	// Stable sort by entry time; ties keep input order so same-day
	// entries are funded in the order the caller supplied them.
	sorted := make([]domain.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return domain.Day(sorted[i].EntryTime).Before(domain.Day(sorted[j].EntryTime))
	})

	start := domain.Day(sorted[0].EntryTime)
	end := domain.Day(sorted[0].ExitTime)
	for _, t := range sorted[1:] {
		if d := domain.Day(t.ExitTime); d.After(end) {
			end = d
		}
	}

	var (
		records   []domain.DailyRecord
		open      []domain.Position
		cash      = startingCash
		nextEntry = 0
	)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		// Exits first: frees cash for same-day entries.
		kept := open[:0]
		for _, pos := range open {
			if domain.SameDay(pos.ExitDate, day) {
				proceeds := decimal.NewFromInt(pos.Shares).Mul(pos.ExitPrice)
				cash = cash.Add(proceeds)
				continue
			}
			kept = append(kept, pos)
		}
		open = kept

		// Entries second, sequentially: each entry sees cash already
		// reduced by earlier entries of the same day.
		for nextEntry < len(sorted) && domain.SameDay(sorted[nextEntry].EntryTime, day) {
			trade := sorted[nextEntry]
			nextEntry++

			shares := affordableShares(cash.Mul(fraction), trade.EntryPrice)
			if shares < 1 {
				// Cannot afford a single whole share: the trade opens
				// no position and leaves cash untouched.
				continue
			}

			cost := decimal.NewFromInt(shares).Mul(trade.EntryPrice)
			cash = cash.Sub(cost)
			open = append(open, domain.Position{
				EntryDate:  day,
				ExitDate:   domain.Day(trade.ExitTime),
				EntryPrice: trade.EntryPrice,
				ExitPrice:  trade.ExitPrice,
				Shares:     shares,
				Cost:       cost,
			})
		}

		// Open positions are valued at entry price, not market price.
		positionValue := decimal.Zero
		for _, pos := range open {
			positionValue = positionValue.Add(decimal.NewFromInt(pos.Shares).Mul(pos.EntryPrice))
		}

		records = append(records, domain.DailyRecord{
			Date:            day,
			CashBalance:     cash,
			ActivePositions: len(open),
			PositionValue:   positionValue,
			TotalPortfolio:  cash.Add(positionValue),
		})
	}

	remaining := make([]domain.Position, len(open))
	copy(remaining, open)
	return records, remaining, nil
}

// affordableShares returns floor(alloc / price) as a whole-share count.
// Non-positive prices afford nothing.
func affordableShares(alloc, price decimal.Decimal) int64 {
	if !price.IsPositive() {
		return 0
	}
	// QuoRem with precision 0 gives the exact integer quotient; both
	// operands are non-negative here so truncation equals floor.
	q, _ := alloc.QuoRem(price, 0)
	return q.IntPart()
}
