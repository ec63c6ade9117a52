package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"cashlab/internal/domain"
)

const dateLayout = "2006-01-02"

// RenderDailyRecordsCSV renders the daily cash trajectory as CSV.
// The header is canonical and must not change; downstream consumers
// match on it.
func RenderDailyRecordsCSV(records []domain.DailyRecord) string {
	var sb strings.Builder

	sb.WriteString("Date,CashBalance,ActivePositions,PositionValue,TotalPortfolio\n")

	for _, r := range records {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%s,%s\n",
			r.Date.Format(dateLayout),
			r.CashBalance.String(),
			r.ActivePositions,
			r.PositionValue.String(),
			r.TotalPortfolio.String(),
		))
	}

	return sb.String()
}

// RenderTradeResultsCSV renders recalculated trade outcomes as CSV.
// The header is canonical and must not change.
func RenderTradeResultsCSV(results []domain.TradeResult) string {
	var sb strings.Builder

	sb.WriteString("EntryDate,ExitDate,Ticker,EntryPrice,ExitPrice,CashAvailable,PositionSize,ActualShares,ActualCost,ActualProceeds,ActualPnL,ReturnPct\n")

	for _, r := range results {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%d,%s,%s,%s,%s\n",
			r.EntryDate.Format(dateLayout),
			r.ExitDate.Format(dateLayout),
			r.Ticker,
			r.EntryPrice.String(),
			r.ExitPrice.String(),
			r.CashAvailable.String(),
			r.PositionSize.String(),
			r.ActualShares,
			r.ActualCost.String(),
			r.ActualProceeds.String(),
			r.ActualPnL.String(),
			formatFloat(r.ReturnPct),
		))
	}

	return sb.String()
}

// RenderTradesCSV renders normalized input trades in the canonical
// column order, the shape ingestion coerces every export into.
func RenderTradesCSV(trades []domain.Trade) string {
	var sb strings.Builder

	sb.WriteString("EntryDate,ExitDate,EntryPrice,ExitPrice,Ticker\n")

	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s\n",
			domain.Day(t.EntryTime).Format(dateLayout),
			domain.Day(t.ExitTime).Format(dateLayout),
			t.EntryPrice.String(),
			t.ExitPrice.String(),
			t.Ticker,
		))
	}

	return sb.String()
}

// RenderBenchmarkCSV renders the buy-and-hold trajectory as CSV.
func RenderBenchmarkCSV(daily []domain.BenchmarkDaily) string {
	var sb strings.Builder

	sb.WriteString("Date,CashBalance,PositionValue,TotalPortfolio,Price\n")

	for _, d := range daily {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s\n",
			d.Date.Format(dateLayout),
			d.CashBalance.String(),
			d.PositionValue.String(),
			d.TotalPortfolio.String(),
			d.Price.String(),
		))
	}

	return sb.String()
}

// formatFloat renders a float without trailing zero noise.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
