package benchmark

import (
	"math"
	"time"

	"cashlab/internal/domain"
)

// tradingDaysPerYear is the annualization convention for volatility.
const tradingDaysPerYear = 252

// Compare inner-joins the strategy and benchmark daily series on calendar
// day and derives relative-performance statistics over the joined days.
// Days present in only one series are dropped, which can distort the
// metrics when the two calendars differ a lot; callers should surface the
// joined day count next to the figures.
//
// The Sharpe figure intentionally divides a whole-period return scaled by
// 252 through an annualized volatility. It is not the textbook ratio, but
// it is what every previously published report used, so it stays.
func Compare(strategy []domain.DailyRecord, bench []domain.BenchmarkDaily) (domain.ComparisonMetrics, error) {
	benchByDay := make(map[time.Time]domain.BenchmarkDaily, len(bench))
	for _, b := range bench {
		d := domain.Day(b.Date)
		if _, exists := benchByDay[d]; !exists {
			benchByDay[d] = b
		}
	}

	var stratValues, benchValues []float64
	for _, s := range strategy {
		b, exists := benchByDay[domain.Day(s.Date)]
		if !exists {
			continue
		}
		stratValues = append(stratValues, s.TotalPortfolio.InexactFloat64())
		benchValues = append(benchValues, b.TotalPortfolio.InexactFloat64())
	}

	if len(stratValues) == 0 {
		start, end := time.Time{}, time.Time{}
		if len(strategy) > 0 {
			start = domain.Day(strategy[0].Date)
			end = domain.Day(strategy[len(strategy)-1].Date)
		}
		return domain.ComparisonMetrics{}, &domain.NoOverlapError{Start: start, End: end}
	}

	stratReturns := pctChange(stratValues)
	benchReturns := pctChange(benchValues)

	stratCum := cumulativeReturns(stratReturns)
	benchCum := cumulativeReturns(benchReturns)

	stratTotal := stratCum[len(stratCum)-1]
	benchTotal := benchCum[len(benchCum)-1]

	stratVol := sampleStd(stratReturns) * math.Sqrt(tradingDaysPerYear)
	benchVol := sampleStd(benchReturns) * math.Sqrt(tradingDaysPerYear)

	outperforming := 0
	for i := range stratReturns {
		// NaN comparisons are false, so the undefined day 0 never counts.
		if stratReturns[i] > benchReturns[i] {
			outperforming++
		}
	}
	totalDays := len(stratReturns)

	return domain.ComparisonMetrics{
		StrategyTotalReturn:  stratTotal * 100,
		BenchmarkTotalReturn: benchTotal * 100,
		Alpha:                (stratTotal - benchTotal) * 100,
		Beta:                 beta(stratReturns, benchReturns),

		StrategyVolatility:  stratVol * 100,
		BenchmarkVolatility: benchVol * 100,

		StrategySharpe:  sharpe(stratTotal, stratVol),
		BenchmarkSharpe: sharpe(benchTotal, benchVol),

		StrategyMaxDrawdown:  maxDrawdown(stratCum) * 100,
		BenchmarkMaxDrawdown: maxDrawdown(benchCum) * 100,

		WinRate:           100 * float64(outperforming) / float64(totalDays),
		OutperformingDays: outperforming,
		TotalDays:         totalDays,

		FinalStrategyValue:  stratValues[len(stratValues)-1],
		FinalBenchmarkValue: benchValues[len(benchValues)-1],
	}, nil
}

// pctChange returns day-over-day fractional changes. The first element is
// NaN: there is no prior day to change from.
func pctChange(values []float64) []float64 {
	returns := make([]float64, len(values))
	returns[0] = math.NaN()
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			returns[i] = math.NaN()
			continue
		}
		returns[i] = values[i]/values[i-1] - 1
	}
	return returns
}

// cumulativeReturns computes cumprod(1 + r) - 1 with NaN treated as 0.
func cumulativeReturns(returns []float64) []float64 {
	cum := make([]float64, len(returns))
	acc := 1.0
	for i, r := range returns {
		if math.IsNaN(r) {
			r = 0
		}
		acc *= 1 + r
		cum[i] = acc - 1
	}
	return cum
}

// sampleStd is the n-1 standard deviation over the non-NaN returns.
// Fewer than two observations yield 0.
func sampleStd(returns []float64) float64 {
	var valid []float64
	for _, r := range returns {
		if !math.IsNaN(r) {
			valid = append(valid, r)
		}
	}
	n := len(valid)
	if n < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range valid {
		mean += r
	}
	mean /= float64(n)

	sumSq := 0.0
	for _, r := range valid {
		diff := r - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// sharpe reproduces the published formula: whole-period return scaled by
// 252 over annualized volatility. Zero when volatility is not positive.
func sharpe(totalReturn, vol float64) float64 {
	if vol <= 0 {
		return 0
	}
	return (totalReturn * tradingDaysPerYear) / (vol * math.Sqrt(tradingDaysPerYear))
}

// beta divides the sample covariance (n-1) of the zero-filled return
// series by the population variance (n) of the zero-filled benchmark
// returns. The mixed divisors match the published figures exactly.
func beta(stratReturns, benchReturns []float64) float64 {
	n := len(stratReturns)
	if n < 2 {
		return 0
	}

	s := make([]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		s[i] = zeroIfNaN(stratReturns[i])
		b[i] = zeroIfNaN(benchReturns[i])
	}

	var meanS, meanB float64
	for i := 0; i < n; i++ {
		meanS += s[i]
		meanB += b[i]
	}
	meanS /= float64(n)
	meanB /= float64(n)

	var cov, varB float64
	for i := 0; i < n; i++ {
		cov += (s[i] - meanS) * (b[i] - meanB)
		varB += (b[i] - meanB) * (b[i] - meanB)
	}
	cov /= float64(n - 1)
	varB /= float64(n)

	if varB <= 0 {
		return 0
	}
	return cov / varB
}

// maxDrawdown is the worst peak-to-trough decline of the cumulative
// return curve, as a fraction (negative or zero).
func maxDrawdown(cum []float64) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, c := range cum {
		if c > peak {
			peak = c
		}
		dd := (c - peak) / (1 + peak)
		if dd < worst {
			worst = dd
		}
	}
	return worst
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
