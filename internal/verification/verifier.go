// Package verification checks stored daily records against a fresh
// recomputation from the same trades. The simulation is deterministic,
// so any divergence means the stored data was tampered with or produced
// by a different engine version.
package verification

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"cashlab/internal/domain"
	"cashlab/internal/simulation"
	"cashlab/internal/storage"
)

// FieldDivergence represents a mismatch between stored and recomputed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // recomputed value
	Actual   interface{} // stored value
}

// DayResult contains the verification outcome for a single day.
type DayResult struct {
	Date        string
	Match       bool
	Divergences []FieldDivergence
}

// Report contains results for a full run verification.
type Report struct {
	RunID         string
	TotalDays     int
	MatchedDays   int
	DivergentDays int
	MissingDays   int // recomputed days absent from storage
	ExtraDays     int // stored days the recomputation never produced
	Results       []DayResult
}

// OK reports whether every day matched and the day sets were identical.
func (r *Report) OK() bool {
	return r.DivergentDays == 0 && r.MissingDays == 0 && r.ExtraDays == 0
}

// Verifier recomputes a run's daily records from its stored trades and
// diffs them against the stored records.
type Verifier struct {
	runs    storage.AnalysisRunStore
	trades  storage.TradeStore
	records storage.DailyRecordStore
}

// NewVerifier creates a Verifier over the given stores.
func NewVerifier(runs storage.AnalysisRunStore, trades storage.TradeStore, records storage.DailyRecordStore) *Verifier {
	return &Verifier{runs: runs, trades: trades, records: records}
}

// VerifyRun loads a run's inputs and stored trajectory, recomputes the
// trajectory, and reports per-day divergences.
func (v *Verifier) VerifyRun(ctx context.Context, runID string) (*Report, error) {
	run, err := v.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	trades, err := v.trades.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load trades for run %s: %w", runID, err)
	}

	stored, err := v.records.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load daily records for run %s: %w", runID, err)
	}

	recomputed, _, err := simulation.Run(trades, run.StartingCash, simulation.Options{
		AllocationFraction: run.AllocationFraction,
	})
	if err != nil {
		return nil, fmt.Errorf("recompute daily records for run %s: %w", runID, err)
	}

	report := CompareDailyRecords(recomputed, stored)
	report.RunID = runID
	return report, nil
}

// CompareDailyRecords diffs a recomputed trajectory against a stored one.
// Money fields use decimal equality, counts and dates exact equality.
func CompareDailyRecords(recomputed, stored []domain.DailyRecord) *Report {
	report := &Report{TotalDays: len(recomputed)}

	storedByDate := make(map[string]domain.DailyRecord, len(stored))
	for _, rec := range stored {
		storedByDate[rec.Date.Format("2006-01-02")] = rec
	}

	recomputedDates := make(map[string]struct{}, len(recomputed))
	for _, want := range recomputed {
		date := want.Date.Format("2006-01-02")
		recomputedDates[date] = struct{}{}

		got, ok := storedByDate[date]
		if !ok {
			report.MissingDays++
			report.Results = append(report.Results, DayResult{
				Date:  date,
				Match: false,
				Divergences: []FieldDivergence{
					{Field: "Date", Expected: date, Actual: "missing"},
				},
			})
			continue
		}

		divergences := compareDay(want, got)
		if len(divergences) == 0 {
			report.MatchedDays++
			continue
		}
		report.DivergentDays++
		report.Results = append(report.Results, DayResult{
			Date:        date,
			Match:       false,
			Divergences: divergences,
		})
	}

	for _, rec := range stored {
		date := rec.Date.Format("2006-01-02")
		if _, ok := recomputedDates[date]; !ok {
			report.ExtraDays++
			report.Results = append(report.Results, DayResult{
				Date:  date,
				Match: false,
				Divergences: []FieldDivergence{
					{Field: "Date", Expected: "absent", Actual: date},
				},
			})
		}
	}

	return report
}

func compareDay(want, got domain.DailyRecord) []FieldDivergence {
	var divergences []FieldDivergence

	if !decimalEquals(want.CashBalance, got.CashBalance) {
		divergences = append(divergences, FieldDivergence{
			Field:    "CashBalance",
			Expected: want.CashBalance.String(),
			Actual:   got.CashBalance.String(),
		})
	}

	if want.ActivePositions != got.ActivePositions {
		divergences = append(divergences, FieldDivergence{
			Field:    "ActivePositions",
			Expected: want.ActivePositions,
			Actual:   got.ActivePositions,
		})
	}

	if !decimalEquals(want.PositionValue, got.PositionValue) {
		divergences = append(divergences, FieldDivergence{
			Field:    "PositionValue",
			Expected: want.PositionValue.String(),
			Actual:   got.PositionValue.String(),
		})
	}

	if !decimalEquals(want.TotalPortfolio, got.TotalPortfolio) {
		divergences = append(divergences, FieldDivergence{
			Field:    "TotalPortfolio",
			Expected: want.TotalPortfolio.String(),
			Actual:   got.TotalPortfolio.String(),
		})
	}

	return divergences
}

// decimalEquals compares by numeric value, so 9000 equals 9000.00.
func decimalEquals(a, b decimal.Decimal) bool {
	return a.Equal(b)
}
