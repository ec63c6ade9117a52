package domain

// ComparisonMetrics summarizes a strategy equity curve against a
// buy-and-hold benchmark over the dates both series cover. All return,
// volatility, drawdown and win-rate figures are percentages.
type ComparisonMetrics struct {
	StrategyTotalReturn  float64
	BenchmarkTotalReturn float64
	Alpha                float64 // strategy minus benchmark total return

	StrategyVolatility  float64 // annualized, sqrt(252)
	BenchmarkVolatility float64

	StrategySharpe  float64
	BenchmarkSharpe float64

	StrategyMaxDrawdown  float64
	BenchmarkMaxDrawdown float64

	Beta float64

	WinRate           float64 // share of days strategy daily return beat benchmark
	OutperformingDays int
	TotalDays         int

	FinalStrategyValue  float64
	FinalBenchmarkValue float64
}
