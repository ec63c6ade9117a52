package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the analysis report as Markdown.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Analysis Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: %s", r.RunID))
		if r.Label != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", r.Label))
		}
		sb.WriteString("\n\n")
	}

	s := r.Summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Starting Cash | %s |\n", s.StartingCash.String()))
	sb.WriteString(fmt.Sprintf("| Final Portfolio | %s |\n", s.FinalPortfolio.String()))
	sb.WriteString(fmt.Sprintf("| Total Return | %.2f%% |\n", s.TotalReturnPct))
	sb.WriteString(fmt.Sprintf("| Total P&L | %s |\n", s.TotalPnL.String()))
	if !s.FirstDate.IsZero() {
		sb.WriteString(fmt.Sprintf("| Date Range | %s to %s |\n",
			s.FirstDate.Format(dateLayout), s.LastDate.Format(dateLayout)))
	}
	sb.WriteString(fmt.Sprintf("| Trading Days | %d |\n", s.TradingDays))
	sb.WriteString(fmt.Sprintf("| Allocation Fraction | %s |\n", s.AllocationFraction.String()))
	sb.WriteString(fmt.Sprintf("| Trades | %d |\n", s.TradeCount))
	sb.WriteString(fmt.Sprintf("| Executed Trades | %d |\n", s.ExecutedTrades))
	sb.WriteString(fmt.Sprintf("| Winning Trades | %d |\n", s.WinningTrades))
	sb.WriteString(fmt.Sprintf("| Trade Win Rate | %.2f%% |\n", s.TradeWinRatePct))
	sb.WriteString(fmt.Sprintf("| Skipped Trades | %d |\n", s.SkippedTrades))
	sb.WriteString(fmt.Sprintf("| Dropped Rows | %d |\n", s.DroppedRows))
	sb.WriteString("\n")

	sb.WriteString("## Benchmark Comparison\n\n")
	if r.Comparison != nil {
		c := r.Comparison
		ticker := s.BenchmarkTicker
		if ticker == "" {
			ticker = "Benchmark"
		}
		sb.WriteString(fmt.Sprintf("| Metric | Strategy | %s |\n", ticker))
		sb.WriteString("|--------|----------|----------|\n")
		sb.WriteString(fmt.Sprintf("| Total Return | %.2f%% | %.2f%% |\n",
			c.StrategyTotalReturn, c.BenchmarkTotalReturn))
		sb.WriteString(fmt.Sprintf("| Volatility (ann.) | %.2f%% | %.2f%% |\n",
			c.StrategyVolatility, c.BenchmarkVolatility))
		sb.WriteString(fmt.Sprintf("| Sharpe | %.4f | %.4f |\n",
			c.StrategySharpe, c.BenchmarkSharpe))
		sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f%% | %.2f%% |\n",
			c.StrategyMaxDrawdown, c.BenchmarkMaxDrawdown))
		sb.WriteString(fmt.Sprintf("| Final Value | %.2f | %.2f |\n",
			c.FinalStrategyValue, c.FinalBenchmarkValue))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Alpha: %.2f%% | Beta: %.4f | Daily Win Rate: %.2f%% (%d of %d days)\n\n",
			c.Alpha, c.Beta, c.WinRate, c.OutperformingDays, c.TotalDays))
		sb.WriteString(fmt.Sprintf("**%s**\n\n", r.Verdict))
	} else {
		sb.WriteString("No benchmark supplied.\n\n")
	}

	return sb.String()
}
