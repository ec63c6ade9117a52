package pipeline

import (
	"time"

	"github.com/shopspring/decimal"

	"cashlab/internal/domain"
)

// FixtureBenchmarkTicker is the ticker the sample benchmark bars carry.
const FixtureBenchmarkTicker = "SPY"

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// SampleTrades returns the built-in five-trade 2017 dataset used for
// offline runs and examples. Entries cluster in late January, so with
// default parameters the first four fill and the cash balance is
// visibly depleted by the fifth.
func SampleTrades() []domain.Trade {
	return []domain.Trade{
		{
			EntryTime:  d(2017, time.January, 11),
			ExitTime:   d(2017, time.March, 14),
			EntryPrice: decimal.RequireFromString("98.96"),
			ExitPrice:  decimal.RequireFromString("109.07"),
			Ticker:     "AAPL",
		},
		{
			EntryTime:  d(2017, time.January, 17),
			ExitTime:   d(2017, time.March, 27),
			EntryPrice: decimal.RequireFromString("37.75"),
			ExitPrice:  decimal.RequireFromString("37.49"),
			Ticker:     "GNRC",
		},
		{
			EntryTime:  d(2017, time.January, 18),
			ExitTime:   d(2017, time.February, 6),
			EntryPrice: decimal.RequireFromString("9.88"),
			ExitPrice:  decimal.RequireFromString("13.63"),
			Ticker:     "AMD",
		},
		{
			EntryTime:  d(2017, time.January, 20),
			ExitTime:   d(2017, time.March, 17),
			EntryPrice: decimal.RequireFromString("91.7"),
			ExitPrice:  decimal.RequireFromString("111.85"),
			Ticker:     "ALGN",
		},
		{
			EntryTime:  d(2017, time.January, 25),
			ExitTime:   d(2017, time.April, 15),
			EntryPrice: decimal.RequireFromString("45.20"),
			ExitPrice:  decimal.RequireFromString("52.30"),
			Ticker:     "NVDA",
		},
	}
}

// SampleBenchmarkBars returns weekly SPY closes covering the sample
// trade window, enough overlap with the daily records for a meaningful
// comparison without shipping a full daily price history.
func SampleBenchmarkBars() []domain.BenchmarkBar {
	closes := []struct {
		date  time.Time
		price string
	}{
		{d(2017, time.January, 11), "227.10"},
		{d(2017, time.January, 17), "226.25"},
		{d(2017, time.January, 18), "226.75"},
		{d(2017, time.January, 20), "226.74"},
		{d(2017, time.January, 25), "229.57"},
		{d(2017, time.February, 1), "227.62"},
		{d(2017, time.February, 6), "228.94"},
		{d(2017, time.February, 15), "233.73"},
		{d(2017, time.February, 22), "235.44"},
		{d(2017, time.March, 1), "239.78"},
		{d(2017, time.March, 8), "236.56"},
		{d(2017, time.March, 14), "237.81"},
		{d(2017, time.March, 17), "237.03"},
		{d(2017, time.March, 22), "233.87"},
		{d(2017, time.March, 27), "233.62"},
		{d(2017, time.April, 5), "235.33"},
		{d(2017, time.April, 12), "234.03"},
		{d(2017, time.April, 15), "232.51"},
	}

	bars := make([]domain.BenchmarkBar, 0, len(closes))
	for _, c := range closes {
		bars = append(bars, domain.BenchmarkBar{
			Date:  c.date,
			Price: decimal.RequireFromString(c.price),
		})
	}
	return bars
}
