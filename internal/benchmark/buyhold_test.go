package benchmark

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cashlab/internal/domain"
)

func bar(d time.Time, price string) domain.BenchmarkBar {
	p, err := decimal.NewFromString(price)
	if err != nil {
		panic(err)
	}
	return domain.BenchmarkBar{Date: d, Price: p}
}

func TestBuildBuyAndHold(t *testing.T) {
	bars := []domain.BenchmarkBar{
		bar(day(2023, 12, 29), "95"), // before range, ignored
		bar(day(2024, 1, 2), "100"),
		bar(day(2024, 1, 3), "102"),
		bar(day(2024, 1, 4), "98"),
	}

	daily, err := BuildBuyAndHold(bars, day(2024, 1, 1), day(2024, 1, 31), decimal.NewFromInt(1050))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(daily) != 3 {
		t.Fatalf("expected 3 daily rows, got %d", len(daily))
	}

	// 1050 / 100 = 10 shares, 50 left over, held constant.
	for i, d := range daily {
		if !d.CashBalance.Equal(decimal.NewFromInt(50)) {
			t.Errorf("row %d: expected constant cash 50, got %s", i, d.CashBalance)
		}
	}

	// Mark-to-market at each day's price.
	if !daily[0].PositionValue.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("day 0 position value: expected 1000, got %s", daily[0].PositionValue)
	}
	if !daily[1].TotalPortfolio.Equal(decimal.NewFromInt(1070)) {
		t.Errorf("day 1 total: expected 1070, got %s", daily[1].TotalPortfolio)
	}
	if !daily[2].TotalPortfolio.Equal(decimal.NewFromInt(1030)) {
		t.Errorf("day 2 total: expected 1030, got %s", daily[2].TotalPortfolio)
	}
}

func TestBuildBuyAndHold_NoOverlap(t *testing.T) {
	bars := []domain.BenchmarkBar{
		bar(day(2023, 1, 2), "100"),
	}

	_, err := BuildBuyAndHold(bars, day(2024, 1, 1), day(2024, 2, 1), decimal.NewFromInt(1000))
	var overlapErr *domain.NoOverlapError
	if !errors.As(err, &overlapErr) {
		t.Fatalf("expected NoOverlapError, got %v", err)
	}
}

func TestBuildBuyAndHold_NonPositiveCash(t *testing.T) {
	bars := []domain.BenchmarkBar{
		bar(day(2024, 1, 2), "100"),
	}

	_, err := BuildBuyAndHold(bars, day(2024, 1, 1), day(2024, 2, 1), decimal.Zero)
	var paramErr *domain.InvalidParameterError
	if !errors.As(err, &paramErr) {
		t.Fatalf("expected InvalidParameterError, got %v", err)
	}
}

func TestBuildBuyAndHold_CashSmallerThanOneShare(t *testing.T) {
	bars := []domain.BenchmarkBar{
		bar(day(2024, 1, 2), "5000"),
		bar(day(2024, 1, 3), "6000"),
	}

	daily, err := BuildBuyAndHold(bars, day(2024, 1, 1), day(2024, 1, 31), decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Zero shares: everything stays in cash regardless of price moves.
	for i, d := range daily {
		if !d.TotalPortfolio.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("row %d: expected total 1000, got %s", i, d.TotalPortfolio)
		}
	}
}
