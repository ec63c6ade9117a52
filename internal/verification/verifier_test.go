package verification

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cashlab/internal/domain"
	"cashlab/internal/simulation"
	"cashlab/internal/storage/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testTrades() []domain.Trade {
	return []domain.Trade{
		{
			EntryTime:  day(2023, 1, 2),
			ExitTime:   day(2023, 1, 5),
			EntryPrice: decimal.NewFromInt(100),
			ExitPrice:  decimal.NewFromInt(110),
			Ticker:     "AAPL",
		},
		{
			EntryTime:  day(2023, 1, 3),
			ExitTime:   day(2023, 1, 6),
			EntryPrice: decimal.NewFromInt(45),
			ExitPrice:  decimal.NewFromInt(40),
			Ticker:     "MSFT",
		},
	}
}

func TestCompareDailyRecords_Identical(t *testing.T) {
	records, _, err := simulation.Run(testTrades(), decimal.NewFromInt(10000), simulation.Options{})
	if err != nil {
		t.Fatalf("simulation failed: %v", err)
	}

	report := CompareDailyRecords(records, records)

	if !report.OK() {
		t.Errorf("Identical records should verify clean: %+v", report)
	}
	if report.MatchedDays != len(records) {
		t.Errorf("MatchedDays = %d, want %d", report.MatchedDays, len(records))
	}
}

func TestCompareDailyRecords_DecimalScaleInsensitive(t *testing.T) {
	recomputed := []domain.DailyRecord{
		{Date: day(2023, 1, 2), CashBalance: decimal.NewFromInt(9000), TotalPortfolio: decimal.NewFromInt(10000)},
	}
	// Same values at a different decimal scale, as a NUMERIC column
	// round-trip produces.
	stored := []domain.DailyRecord{
		{Date: day(2023, 1, 2), CashBalance: decimal.RequireFromString("9000.00000000"), TotalPortfolio: decimal.RequireFromString("10000.00000000")},
	}

	report := CompareDailyRecords(recomputed, stored)
	if !report.OK() {
		t.Errorf("Scale differences should not diverge: %+v", report.Results)
	}
}

func TestCompareDailyRecords_Divergence(t *testing.T) {
	recomputed := []domain.DailyRecord{
		{Date: day(2023, 1, 2), CashBalance: decimal.NewFromInt(9000), ActivePositions: 1, PositionValue: decimal.NewFromInt(1000), TotalPortfolio: decimal.NewFromInt(10000)},
	}
	stored := []domain.DailyRecord{
		{Date: day(2023, 1, 2), CashBalance: decimal.NewFromInt(9500), ActivePositions: 2, PositionValue: decimal.NewFromInt(1000), TotalPortfolio: decimal.NewFromInt(10000)},
	}

	report := CompareDailyRecords(recomputed, stored)

	if report.OK() {
		t.Fatal("Expected divergence")
	}
	if report.DivergentDays != 1 {
		t.Fatalf("DivergentDays = %d, want 1", report.DivergentDays)
	}

	divs := report.Results[0].Divergences
	if len(divs) != 2 {
		t.Fatalf("Expected 2 field divergences, got %d: %+v", len(divs), divs)
	}
	if divs[0].Field != "CashBalance" || divs[1].Field != "ActivePositions" {
		t.Errorf("Unexpected divergent fields: %s, %s", divs[0].Field, divs[1].Field)
	}
}

func TestCompareDailyRecords_MissingAndExtraDays(t *testing.T) {
	recomputed := []domain.DailyRecord{
		{Date: day(2023, 1, 2), CashBalance: decimal.NewFromInt(9000)},
		{Date: day(2023, 1, 3), CashBalance: decimal.NewFromInt(9000)},
	}
	stored := []domain.DailyRecord{
		{Date: day(2023, 1, 2), CashBalance: decimal.NewFromInt(9000)},
		{Date: day(2023, 1, 4), CashBalance: decimal.NewFromInt(9000)},
	}

	report := CompareDailyRecords(recomputed, stored)

	if report.MissingDays != 1 {
		t.Errorf("MissingDays = %d, want 1", report.MissingDays)
	}
	if report.ExtraDays != 1 {
		t.Errorf("ExtraDays = %d, want 1", report.ExtraDays)
	}
	if report.OK() {
		t.Error("Report with missing/extra days should not be OK")
	}
}

func TestVerifier_VerifyRun(t *testing.T) {
	ctx := context.Background()

	runs := memory.NewAnalysisRunStore()
	trades := memory.NewTradeStore()
	records := memory.NewDailyRecordStore()

	run := &domain.AnalysisRun{
		RunID:              "run-001",
		Status:             domain.RunStatusCompleted,
		StartingCash:       decimal.NewFromInt(10000),
		AllocationFraction: decimal.NewFromFloat(0.10),
	}
	if err := runs.Insert(ctx, run); err != nil {
		t.Fatalf("insert run: %v", err)
	}
	if err := trades.InsertBulk(ctx, "run-001", testTrades()); err != nil {
		t.Fatalf("insert trades: %v", err)
	}

	simulated, _, err := simulation.Run(testTrades(), run.StartingCash, simulation.Options{
		AllocationFraction: run.AllocationFraction,
	})
	if err != nil {
		t.Fatalf("simulation failed: %v", err)
	}
	if err := records.InsertBulk(ctx, "run-001", simulated); err != nil {
		t.Fatalf("insert records: %v", err)
	}

	verifier := NewVerifier(runs, trades, records)
	report, err := verifier.VerifyRun(ctx, "run-001")
	if err != nil {
		t.Fatalf("VerifyRun failed: %v", err)
	}

	if !report.OK() {
		t.Errorf("Untouched run should verify clean: %+v", report.Results)
	}
	if report.RunID != "run-001" {
		t.Errorf("RunID = %s", report.RunID)
	}
}

func TestVerifier_VerifyRunDetectsTampering(t *testing.T) {
	ctx := context.Background()

	runs := memory.NewAnalysisRunStore()
	trades := memory.NewTradeStore()
	records := memory.NewDailyRecordStore()

	run := &domain.AnalysisRun{
		RunID:              "run-001",
		Status:             domain.RunStatusCompleted,
		StartingCash:       decimal.NewFromInt(10000),
		AllocationFraction: decimal.NewFromFloat(0.10),
	}
	if err := runs.Insert(ctx, run); err != nil {
		t.Fatalf("insert run: %v", err)
	}
	if err := trades.InsertBulk(ctx, "run-001", testTrades()); err != nil {
		t.Fatalf("insert trades: %v", err)
	}

	simulated, _, err := simulation.Run(testTrades(), run.StartingCash, simulation.Options{
		AllocationFraction: run.AllocationFraction,
	})
	if err != nil {
		t.Fatalf("simulation failed: %v", err)
	}
	// Inflate one day's cash before storing.
	simulated[1].CashBalance = simulated[1].CashBalance.Add(decimal.NewFromInt(500))
	if err := records.InsertBulk(ctx, "run-001", simulated); err != nil {
		t.Fatalf("insert records: %v", err)
	}

	verifier := NewVerifier(runs, trades, records)
	report, err := verifier.VerifyRun(ctx, "run-001")
	if err != nil {
		t.Fatalf("VerifyRun failed: %v", err)
	}

	if report.OK() {
		t.Fatal("Tampered run should not verify clean")
	}
	if report.DivergentDays != 1 {
		t.Errorf("DivergentDays = %d, want 1", report.DivergentDays)
	}
}
