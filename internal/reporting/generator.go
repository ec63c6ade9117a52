package reporting

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cashlab/internal/domain"
)

// BuildReport assembles a Report from the run's outputs. comparison may
// be nil when no benchmark was supplied. now stamps GeneratedAt so
// callers can pin it for deterministic output.
func BuildReport(
	run *domain.AnalysisRun,
	records []domain.DailyRecord,
	results []domain.TradeResult,
	comparison *domain.ComparisonMetrics,
	now time.Time,
) *Report {
	summary := RunSummary{
		StartingCash:       run.StartingCash,
		AllocationFraction: run.AllocationFraction,
		BenchmarkTicker:    run.BenchmarkTicker,
		TradeCount:         run.TradeCount,
		SkippedTrades:      run.SkippedTrades,
		DroppedRows:        run.DroppedRows,
		TradingDays:        len(records),
	}

	if len(records) > 0 {
		first := records[0]
		last := records[len(records)-1]
		summary.FirstDate = first.Date
		summary.LastDate = last.Date
		summary.FinalPortfolio = last.TotalPortfolio
		summary.TotalPnL = last.TotalPortfolio.Sub(run.StartingCash)
		if run.StartingCash.IsPositive() {
			summary.TotalReturnPct = summary.TotalPnL.
				Div(run.StartingCash).InexactFloat64() * 100
		}
	}

	for _, r := range results {
		if r.ActualShares == 0 {
			continue
		}
		summary.ExecutedTrades++
		if r.ActualPnL.IsPositive() {
			summary.WinningTrades++
		}
	}
	if summary.ExecutedTrades > 0 {
		summary.TradeWinRatePct = float64(summary.WinningTrades) /
			float64(summary.ExecutedTrades) * 100
	}

	report := &Report{
		GeneratedAt: now,
		RunID:       run.RunID,
		Label:       run.Label,
		Summary:     summary,
		Comparison:  comparison,
	}
	if comparison != nil {
		report.Verdict = verdict(comparison)
	}
	return report
}

// verdict states whether the strategy beat buy-and-hold and by how much.
func verdict(c *domain.ComparisonMetrics) string {
	alpha := decimal.NewFromFloat(c.Alpha)
	if c.Alpha >= 0 {
		return fmt.Sprintf("Strategy OUTPERFORMED benchmark by %s%%", alpha.Round(2))
	}
	return fmt.Sprintf("Strategy UNDERPERFORMED benchmark by %s%%", alpha.Abs().Round(2))
}
