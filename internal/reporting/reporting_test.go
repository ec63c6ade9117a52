package reporting

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cashlab/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRenderDailyRecordsCSV(t *testing.T) {
	records := []domain.DailyRecord{
		{
			Date:            day(2017, 1, 11),
			CashBalance:     decimal.NewFromInt(9000),
			ActivePositions: 1,
			PositionValue:   decimal.NewFromFloat(989.6),
			TotalPortfolio:  decimal.NewFromFloat(9989.6),
		},
		{
			Date:            day(2017, 1, 12),
			CashBalance:     decimal.NewFromInt(9000),
			ActivePositions: 1,
			PositionValue:   decimal.NewFromFloat(989.6),
			TotalPortfolio:  decimal.NewFromFloat(9989.6),
		},
	}

	got := RenderDailyRecordsCSV(records)

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Date,CashBalance,ActivePositions,PositionValue,TotalPortfolio" {
		t.Errorf("Header mismatch: %q", lines[0])
	}
	if lines[1] != "2017-01-11,9000,1,989.6,9989.6" {
		t.Errorf("Row mismatch: %q", lines[1])
	}
}

func TestRenderDailyRecordsCSV_Empty(t *testing.T) {
	got := RenderDailyRecordsCSV(nil)
	if got != "Date,CashBalance,ActivePositions,PositionValue,TotalPortfolio\n" {
		t.Errorf("Empty render should be header only, got %q", got)
	}
}

func TestRenderTradeResultsCSV(t *testing.T) {
	results := []domain.TradeResult{
		{
			EntryDate:      day(2017, 1, 11),
			ExitDate:       day(2017, 3, 14),
			Ticker:         "AAPL",
			EntryPrice:     decimal.NewFromFloat(98.96),
			ExitPrice:      decimal.NewFromFloat(109.07),
			CashAvailable:  decimal.NewFromInt(10000),
			PositionSize:   decimal.NewFromInt(1000),
			ActualShares:   10,
			ActualCost:     decimal.NewFromFloat(989.6),
			ActualProceeds: decimal.NewFromFloat(1090.7),
			ActualPnL:      decimal.NewFromFloat(101.1),
			ReturnPct:      10.2162,
		},
	}

	got := RenderTradeResultsCSV(results)

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	wantHeader := "EntryDate,ExitDate,Ticker,EntryPrice,ExitPrice,CashAvailable,PositionSize,ActualShares,ActualCost,ActualProceeds,ActualPnL,ReturnPct"
	if lines[0] != wantHeader {
		t.Errorf("Header mismatch: %q", lines[0])
	}
	if lines[1] != "2017-01-11,2017-03-14,AAPL,98.96,109.07,10000,1000,10,989.6,1090.7,101.1,10.2162" {
		t.Errorf("Row mismatch: %q", lines[1])
	}
}

func TestRenderBenchmarkCSV(t *testing.T) {
	daily := []domain.BenchmarkDaily{
		{
			Date:           day(2017, 1, 11),
			CashBalance:    decimal.NewFromFloat(12.5),
			PositionValue:  decimal.NewFromFloat(9987.5),
			TotalPortfolio: decimal.NewFromInt(10000),
			Price:          decimal.NewFromFloat(227.1),
		},
	}

	got := RenderBenchmarkCSV(daily)

	if !strings.HasPrefix(got, "Date,CashBalance,PositionValue,TotalPortfolio,Price\n") {
		t.Errorf("Header mismatch: %q", got)
	}
	if !strings.Contains(got, "2017-01-11,12.5,9987.5,10000,227.1\n") {
		t.Errorf("Row missing: %q", got)
	}
}

func TestRenderTradesCSV(t *testing.T) {
	trades := []domain.Trade{
		{
			EntryTime:  day(2017, 1, 11),
			ExitTime:   day(2017, 3, 14),
			EntryPrice: decimal.NewFromFloat(98.96),
			ExitPrice:  decimal.NewFromFloat(109.07),
			Ticker:     "AAPL",
		},
	}

	got := RenderTradesCSV(trades)

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "EntryDate,ExitDate,EntryPrice,ExitPrice,Ticker" {
		t.Errorf("Header mismatch: %q", lines[0])
	}
	if lines[1] != "2017-01-11,2017-03-14,98.96,109.07,AAPL" {
		t.Errorf("Row mismatch: %q", lines[1])
	}
}

func testRun() *domain.AnalysisRun {
	return &domain.AnalysisRun{
		RunID:              "run-001",
		Label:              "8x4QmVfw",
		StartingCash:       decimal.NewFromInt(10000),
		AllocationFraction: decimal.NewFromFloat(0.10),
		BenchmarkTicker:    "SPY",
		TradeCount:         5,
		SkippedTrades:      1,
		DroppedRows:        2,
	}
}

func TestBuildReport_Summary(t *testing.T) {
	records := []domain.DailyRecord{
		{Date: day(2017, 1, 11), TotalPortfolio: decimal.NewFromInt(10000)},
		{Date: day(2017, 1, 12), TotalPortfolio: decimal.NewFromInt(10250)},
	}
	results := []domain.TradeResult{
		{ActualShares: 10, ActualPnL: decimal.NewFromInt(100)},
		{ActualShares: 5, ActualPnL: decimal.NewFromInt(-40)},
		{ActualShares: 0, ActualPnL: decimal.Zero},
	}

	report := BuildReport(testRun(), records, results, nil, day(2023, 6, 1))

	s := report.Summary
	if !s.FinalPortfolio.Equal(decimal.NewFromInt(10250)) {
		t.Errorf("FinalPortfolio = %s, want 10250", s.FinalPortfolio)
	}
	if !s.TotalPnL.Equal(decimal.NewFromInt(250)) {
		t.Errorf("TotalPnL = %s, want 250", s.TotalPnL)
	}
	if s.TotalReturnPct != 2.5 {
		t.Errorf("TotalReturnPct = %f, want 2.5", s.TotalReturnPct)
	}
	if s.ExecutedTrades != 2 {
		t.Errorf("ExecutedTrades = %d, want 2", s.ExecutedTrades)
	}
	if s.WinningTrades != 1 {
		t.Errorf("WinningTrades = %d, want 1", s.WinningTrades)
	}
	if s.TradeWinRatePct != 50 {
		t.Errorf("TradeWinRatePct = %f, want 50", s.TradeWinRatePct)
	}
	if s.TradingDays != 2 {
		t.Errorf("TradingDays = %d, want 2", s.TradingDays)
	}
	if report.Verdict != "" {
		t.Errorf("Verdict should be empty without comparison, got %q", report.Verdict)
	}
}

func TestBuildReport_Verdict(t *testing.T) {
	records := []domain.DailyRecord{
		{Date: day(2017, 1, 11), TotalPortfolio: decimal.NewFromInt(10000)},
	}

	outperform := &domain.ComparisonMetrics{Alpha: 3.456}
	report := BuildReport(testRun(), records, nil, outperform, day(2023, 6, 1))
	if report.Verdict != "Strategy OUTPERFORMED benchmark by 3.46%" {
		t.Errorf("Verdict mismatch: %q", report.Verdict)
	}

	underperform := &domain.ComparisonMetrics{Alpha: -1.2}
	report = BuildReport(testRun(), records, nil, underperform, day(2023, 6, 1))
	if report.Verdict != "Strategy UNDERPERFORMED benchmark by 1.2%" {
		t.Errorf("Verdict mismatch: %q", report.Verdict)
	}
}

func TestRenderMarkdown(t *testing.T) {
	records := []domain.DailyRecord{
		{Date: day(2017, 1, 11), TotalPortfolio: decimal.NewFromInt(10000)},
		{Date: day(2017, 4, 15), TotalPortfolio: decimal.NewFromFloat(10243.87)},
	}
	comparison := &domain.ComparisonMetrics{
		StrategyTotalReturn:  2.44,
		BenchmarkTotalReturn: 5.1,
		Alpha:                -2.66,
		Beta:                 0.42,
		WinRate:              48.2,
		OutperformingDays:    41,
		TotalDays:            85,
	}

	report := BuildReport(testRun(), records, nil, comparison, day(2023, 6, 1))
	md := RenderMarkdown(report)

	for _, want := range []string{
		"# Analysis Report",
		"## Run Summary",
		"| Starting Cash | 10000 |",
		"| Date Range | 2017-01-11 to 2017-04-15 |",
		"## Benchmark Comparison",
		"| Metric | Strategy | SPY |",
		"Strategy UNDERPERFORMED benchmark by 2.66%",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_NoBenchmark(t *testing.T) {
	report := BuildReport(testRun(), nil, nil, nil, day(2023, 6, 1))
	md := RenderMarkdown(report)

	if !strings.Contains(md, "No benchmark supplied.") {
		t.Errorf("Markdown should note missing benchmark:\n%s", md)
	}
}
