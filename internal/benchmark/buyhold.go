// Package benchmark builds buy-and-hold reference trajectories and
// compares the simulated equity curve against them.
package benchmark

import (
	"time"

	"github.com/shopspring/decimal"

	"cashlab/internal/domain"
	"cashlab/internal/lookup"
)

// BuildBuyAndHold purchases as many whole benchmark shares as startingCash
// allows at the first price on or after start, then holds to end with no
// rebalancing. The leftover cash stays constant for the whole range.
//
// Unlike the strategy's daily records, PositionValue here is
// mark-to-market: the benchmark series is its own price feed.
func BuildBuyAndHold(bars []domain.BenchmarkBar, start, end time.Time, startingCash decimal.Decimal) ([]domain.BenchmarkDaily, error) {
	if !startingCash.IsPositive() {
		return nil, &domain.InvalidParameterError{
			Param:  "startingCash",
			Reason: "must be positive",
		}
	}

	period := lookup.FilterBars(bars, start, end)
	if len(period) == 0 {
		return nil, &domain.NoOverlapError{Start: domain.Day(start), End: domain.Day(end)}
	}

	firstPrice := period[0].Price
	shares := int64(0)
	if firstPrice.IsPositive() {
		q, _ := startingCash.QuoRem(firstPrice, 0)
		shares = q.IntPart()
	}
	cost := decimal.NewFromInt(shares).Mul(firstPrice)
	remaining := startingCash.Sub(cost)

	daily := make([]domain.BenchmarkDaily, 0, len(period))
	for _, bar := range period {
		positionValue := decimal.NewFromInt(shares).Mul(bar.Price)
		daily = append(daily, domain.BenchmarkDaily{
			Date:           domain.Day(bar.Date),
			CashBalance:    remaining,
			PositionValue:  positionValue,
			TotalPortfolio: remaining.Add(positionValue),
			Price:          bar.Price,
		})
	}
	return daily, nil
}
