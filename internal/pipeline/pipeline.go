// Package pipeline runs a full analysis end to end: load trades,
// simulate the cash-constrained strategy, recalculate per-trade
// figures, build and compare the buy-and-hold benchmark, persist
// everything, and write the report files.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cashlab/internal/benchmark"
	"cashlab/internal/domain"
	"cashlab/internal/idhash"
	"cashlab/internal/ingestion"
	"cashlab/internal/normalization"
	"cashlab/internal/observability"
	"cashlab/internal/recalc"
	"cashlab/internal/reporting"
	"cashlab/internal/simulation"
	"cashlab/internal/storage"
	"cashlab/internal/tracing"
	"cashlab/internal/verification"
)

// Output file names written into the output directory.
const (
	DailyRecordsCSV   = "daily_records.csv"
	TradeResultsCSV   = "trade_results.csv"
	BenchmarkDailyCSV = "benchmark_daily.csv"
	ReportMD          = "ANALYSIS_REPORT.md"
	DailyRecordsArrow = "daily_records.arrow"
)

// Stores bundles the persistence targets. Any nil store is skipped, so
// a fully offline run needs no databases at all.
type Stores struct {
	Runs    storage.AnalysisRunStore
	Trades  storage.TradeStore
	Results storage.TradeResultStore
	Records storage.DailyRecordStore
	Bars    storage.BenchmarkBarStore
}

// Result carries everything a run produced, for callers that want the
// data in memory rather than just the files.
type Result struct {
	Run          *domain.AnalysisRun
	Records      []domain.DailyRecord
	Results      []domain.TradeResult
	Comparison   *domain.ComparisonMetrics
	Report       *reporting.Report
	Verification *verification.Report // nil unless WithVerification
	Files        []string
}

// Pipeline orchestrates one analysis run.
type Pipeline struct {
	startingCash       decimal.Decimal
	allocationFraction decimal.Decimal
	outputDir          string

	tradesPath string
	trades     []domain.Trade
	dropped    normalization.DropCounts

	benchmarkTicker string
	benchmarkPath   string
	benchmarkBars   []domain.BenchmarkBar

	stores    Stores
	clock     func() time.Time
	newID     func() string
	phaseHook func(phase string)
	verify    bool

	runPersisted bool
}

// New creates a pipeline with the given cash parameters writing into
// outputDir. A trade source must be supplied via WithTradesFile,
// WithTrades, or WithFixtures before Run.
func New(outputDir string, startingCash, allocationFraction decimal.Decimal) *Pipeline {
	return &Pipeline{
		startingCash:       startingCash,
		allocationFraction: allocationFraction,
		outputDir:          outputDir,
		clock:              func() time.Time { return time.Now().UTC() },
		newID:              uuid.NewString,
	}
}

// WithTradesFile loads trades from a CSV, Excel, or HTML export.
func (p *Pipeline) WithTradesFile(path string) *Pipeline {
	p.tradesPath = path
	p.trades = nil
	return p
}

// WithTrades uses already-normalized trades, bypassing ingestion.
func (p *Pipeline) WithTrades(trades []domain.Trade) *Pipeline {
	p.trades = trades
	p.tradesPath = ""
	return p
}

// WithFixtures uses the built-in sample trade set and benchmark bars,
// for offline runs that need no input files.
func (p *Pipeline) WithFixtures() *Pipeline {
	p.trades = SampleTrades()
	p.tradesPath = ""
	p.benchmarkTicker = FixtureBenchmarkTicker
	p.benchmarkBars = SampleBenchmarkBars()
	p.benchmarkPath = ""
	return p
}

// WithBenchmarkFile loads benchmark bars for ticker from a price export.
func (p *Pipeline) WithBenchmarkFile(ticker, path string) *Pipeline {
	p.benchmarkTicker = ticker
	p.benchmarkPath = path
	p.benchmarkBars = nil
	return p
}

// WithBenchmarkTicker compares against ticker using bars already in
// the benchmark bar store.
func (p *Pipeline) WithBenchmarkTicker(ticker string) *Pipeline {
	p.benchmarkTicker = ticker
	p.benchmarkBars = nil
	p.benchmarkPath = ""
	return p
}

// WithBenchmarkBars uses already-normalized benchmark bars for ticker.
func (p *Pipeline) WithBenchmarkBars(ticker string, bars []domain.BenchmarkBar) *Pipeline {
	p.benchmarkTicker = ticker
	p.benchmarkBars = bars
	p.benchmarkPath = ""
	return p
}

// WithStores enables persistence of the run and its artifacts.
func (p *Pipeline) WithStores(s Stores) *Pipeline {
	p.stores = s
	return p
}

// WithClock sets a custom clock for deterministic output.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// WithRunID sets a custom run ID generator, for deterministic tests.
func (p *Pipeline) WithRunID(newID func() string) *Pipeline {
	p.newID = newID
	return p
}

// WithPhaseHook calls fn at the start of every pipeline phase. Used by
// the server to stream progress to WebSocket subscribers.
func (p *Pipeline) WithPhaseHook(fn func(phase string)) *Pipeline {
	p.phaseHook = fn
	return p
}

// WithVerification reads the persisted daily records back after the
// run and diffs them against the computed ones. Requires a record
// store; any divergence fails the run.
func (p *Pipeline) WithVerification() *Pipeline {
	p.verify = true
	return p
}

func (p *Pipeline) enterPhase(phase string) {
	if p.phaseHook != nil {
		p.phaseHook(phase)
	}
}

// Run executes the full analysis. On success the output directory holds
// daily_records.csv, trade_results.csv, ANALYSIS_REPORT.md,
// daily_records.arrow, and benchmark_daily.csv when a benchmark was
// supplied. The run row, trades, results, and daily records are
// persisted to whichever stores were configured; a failed run is still
// recorded with its error message.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	observability.RecordRunStarted()

	run := &domain.AnalysisRun{
		RunID:              p.newID(),
		Status:             domain.RunStatusRunning,
		StartingCash:       p.startingCash,
		AllocationFraction: p.allocationFraction,
		BenchmarkTicker:    p.benchmarkTicker,
		CreatedAt:          p.clock(),
	}

	res, err := p.run(ctx, run)
	if err != nil {
		observability.RecordRunFailed()
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
		run.CompletedAt = p.clock()
		p.persistRun(ctx, run)
		return nil, err
	}

	observability.RecordRunCompleted()
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, run *domain.AnalysisRun) (*Result, error) {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return nil, err
	}

	trades, err := p.loadTrades(ctx)
	if err != nil {
		return nil, err
	}
	run.Label = idhash.RunLabel(idhash.ComputeDatasetID(trades))
	run.TradeCount = len(trades)
	run.DroppedRows = p.dropped.Total()
	if p.stores.Runs != nil {
		if err := p.stores.Runs.Insert(ctx, run); err != nil {
			return nil, fmt.Errorf("persist run: %w", err)
		}
		p.runPersisted = true
	}

	records, _, err := p.simulate(ctx, trades)
	if err != nil {
		return nil, err
	}

	results, skipped, err := p.recalculate(ctx, trades, records)
	if err != nil {
		return nil, err
	}
	run.SkippedTrades = skipped
	observability.RecordTradesProcessed(len(results))
	observability.RecordTradesSkipped(skipped)

	run.FirstDate = domain.Day(records[0].Date)
	run.LastDate = domain.Day(records[len(records)-1].Date)
	run.FinalPortfolio = records[len(records)-1].TotalPortfolio

	comparison, benchDaily, err := p.compareBenchmark(ctx, run, records)
	if err != nil {
		return nil, err
	}

	if err := p.persist(ctx, run, trades, records, results); err != nil {
		return nil, err
	}

	var verifyReport *verification.Report
	if p.verify {
		verifyReport, err = p.verifyPersisted(ctx, run.RunID, records)
		if err != nil {
			return nil, err
		}
	}

	report := reporting.BuildReport(run, records, results, comparison, p.clock())
	report.RunID = run.RunID
	report.Label = run.Label

	files, err := p.render(ctx, report, records, results, benchDaily)
	if err != nil {
		return nil, err
	}

	run.Status = domain.RunStatusCompleted
	run.CompletedAt = p.clock()
	p.persistRun(ctx, run)

	return &Result{
		Run:          run,
		Records:      records,
		Results:      results,
		Comparison:   comparison,
		Report:       report,
		Verification: verifyReport,
		Files:        files,
	}, nil
}

// verifyPersisted reads the run's daily records back from storage and
// diffs them against the just-computed series.
func (p *Pipeline) verifyPersisted(ctx context.Context, runID string, records []domain.DailyRecord) (*verification.Report, error) {
	p.enterPhase("verify")
	if p.stores.Records == nil {
		return nil, &domain.EmptyInputError{What: "daily record store"}
	}

	stored, err := p.stores.Records.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	report := verification.CompareDailyRecords(records, stored)
	if !report.OK() {
		return report, fmt.Errorf("verify: %d divergent, %d missing, %d extra days",
			report.DivergentDays, report.MissingDays, report.ExtraDays)
	}
	return report, nil
}

func (p *Pipeline) loadTrades(ctx context.Context) ([]domain.Trade, error) {
	p.enterPhase("load")
	ctx, span := tracing.StartSpan(ctx, "pipeline.load")
	defer span.End()
	start := time.Now()
	defer func() { observability.RecordPhaseDuration("load", time.Since(start).Seconds()) }()

	if p.trades != nil {
		return p.trades, nil
	}
	if p.tradesPath == "" {
		return nil, &domain.EmptyInputError{What: "trade source"}
	}

	trades, dropped, err := ingestion.LoadTrades(ctx, p.tradesPath)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	p.dropped = dropped
	recordDrops(dropped)
	return trades, nil
}

func recordDrops(d normalization.DropCounts) {
	observability.RecordRowsDropped("blank", d.Blank)
	observability.RecordRowsDropped("bad_date", d.BadDate)
	observability.RecordRowsDropped("non_positive_price", d.NonPositivePrice)
	observability.RecordRowsDropped("exit_not_after_entry", d.ExitNotAfterEntry)
}

func (p *Pipeline) simulate(ctx context.Context, trades []domain.Trade) ([]domain.DailyRecord, []domain.Position, error) {
	p.enterPhase("simulate")
	_, span := tracing.StartSpan(ctx, "pipeline.simulate")
	defer span.End()
	start := time.Now()
	defer func() {
		elapsed := time.Since(start).Seconds()
		observability.RecordPhaseDuration("simulate", elapsed)
		observability.RecordSimulationDuration(elapsed)
	}()

	return simulation.Run(trades, p.startingCash, simulation.Options{
		AllocationFraction: p.allocationFraction,
	})
}

func (p *Pipeline) recalculate(ctx context.Context, trades []domain.Trade, records []domain.DailyRecord) ([]domain.TradeResult, int, error) {
	p.enterPhase("recalculate")
	_, span := tracing.StartSpan(ctx, "pipeline.recalculate")
	defer span.End()
	start := time.Now()
	defer func() { observability.RecordPhaseDuration("recalculate", time.Since(start).Seconds()) }()

	return recalc.Run(trades, records, recalc.Options{
		AllocationFraction: p.allocationFraction,
	})
}

// compareBenchmark builds the buy-and-hold trajectory over the run's
// date range and compares the two curves. Returns nils when no
// benchmark was configured.
func (p *Pipeline) compareBenchmark(ctx context.Context, run *domain.AnalysisRun, records []domain.DailyRecord) (*domain.ComparisonMetrics, []domain.BenchmarkDaily, error) {
	if p.benchmarkTicker == "" {
		return nil, nil, nil
	}

	p.enterPhase("benchmark")
	ctx, span := tracing.StartSpan(ctx, "pipeline.benchmark")
	defer span.End()
	start := time.Now()
	defer func() { observability.RecordPhaseDuration("benchmark", time.Since(start).Seconds()) }()

	bars, err := p.loadBenchmarkBars(ctx)
	if err != nil {
		return nil, nil, err
	}

	daily, err := benchmark.BuildBuyAndHold(bars, run.FirstDate, run.LastDate, p.startingCash)
	if err != nil {
		return nil, nil, fmt.Errorf("benchmark %s: %w", p.benchmarkTicker, err)
	}

	metrics, err := benchmark.Compare(records, daily)
	if err != nil {
		return nil, nil, fmt.Errorf("compare against %s: %w", p.benchmarkTicker, err)
	}
	return &metrics, daily, nil
}

func (p *Pipeline) loadBenchmarkBars(ctx context.Context) ([]domain.BenchmarkBar, error) {
	if p.benchmarkBars != nil {
		return p.benchmarkBars, nil
	}
	if p.benchmarkPath != "" {
		bars, dropped, err := ingestion.LoadBenchmark(ctx, p.benchmarkPath)
		if err != nil {
			return nil, fmt.Errorf("load benchmark: %w", err)
		}
		observability.RecordRowsDropped("benchmark", dropped.Total())
		return bars, nil
	}
	if p.stores.Bars != nil {
		bars, err := p.stores.Bars.GetByTicker(ctx, p.benchmarkTicker)
		if err != nil {
			return nil, fmt.Errorf("load benchmark from store: %w", err)
		}
		return bars, nil
	}
	return nil, &domain.EmptyInputError{What: "benchmark source"}
}

func (p *Pipeline) persist(ctx context.Context, run *domain.AnalysisRun, trades []domain.Trade, records []domain.DailyRecord, results []domain.TradeResult) error {
	p.enterPhase("persist")
	ctx, span := tracing.StartSpan(ctx, "pipeline.persist")
	defer span.End()
	start := time.Now()
	defer func() { observability.RecordPhaseDuration("persist", time.Since(start).Seconds()) }()

	if p.stores.Trades != nil {
		if err := p.stores.Trades.InsertBulk(ctx, run.RunID, trades); err != nil {
			return fmt.Errorf("persist trades: %w", err)
		}
	}
	if p.stores.Results != nil {
		if err := p.stores.Results.InsertBulk(ctx, run.RunID, results); err != nil {
			return fmt.Errorf("persist trade results: %w", err)
		}
	}
	if p.stores.Records != nil {
		if err := p.stores.Records.InsertBulk(ctx, run.RunID, records); err != nil {
			return fmt.Errorf("persist daily records: %w", err)
		}
	}
	if p.stores.Bars != nil && p.benchmarkBars != nil {
		// The ticker's bars may already be loaded from a prior run.
		err := p.stores.Bars.InsertBulk(ctx, p.benchmarkTicker, p.benchmarkBars)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("persist benchmark bars: %w", err)
		}
	}
	return nil
}

// persistRun best-effort updates the run row. A run that failed before
// its own row went in has nothing safe to update; in particular a
// duplicate-ID failure must not clobber the row it collided with.
func (p *Pipeline) persistRun(ctx context.Context, run *domain.AnalysisRun) {
	if p.stores.Runs == nil {
		return
	}
	if !p.runPersisted {
		_ = p.stores.Runs.Insert(ctx, run)
		return
	}
	_ = p.stores.Runs.Update(ctx, run)
}

func (p *Pipeline) render(ctx context.Context, report *reporting.Report, records []domain.DailyRecord, results []domain.TradeResult, benchDaily []domain.BenchmarkDaily) ([]string, error) {
	p.enterPhase("render")
	_, span := tracing.StartSpan(ctx, "pipeline.render")
	defer span.End()
	start := time.Now()
	defer func() { observability.RecordPhaseDuration("render", time.Since(start).Seconds()) }()

	var files []string
	write := func(name, content string) error {
		path := filepath.Join(p.outputDir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
		files = append(files, path)
		return nil
	}

	if err := write(DailyRecordsCSV, reporting.RenderDailyRecordsCSV(records)); err != nil {
		return nil, err
	}
	if err := write(TradeResultsCSV, reporting.RenderTradeResultsCSV(results)); err != nil {
		return nil, err
	}
	if benchDaily != nil {
		if err := write(BenchmarkDailyCSV, reporting.RenderBenchmarkCSV(benchDaily)); err != nil {
			return nil, err
		}
	}
	if err := write(ReportMD, reporting.RenderMarkdown(report)); err != nil {
		return nil, err
	}

	arrowPath := filepath.Join(p.outputDir, DailyRecordsArrow)
	f, err := os.Create(arrowPath)
	if err != nil {
		return nil, err
	}
	if err := reporting.WriteDailyRecordsArrow(f, records); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	files = append(files, arrowPath)

	return files, nil
}
