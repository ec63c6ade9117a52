package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cashlab/internal/benchmark"
	"cashlab/internal/domain"
	"cashlab/internal/pipeline"
	"cashlab/internal/storage"
)

// startRunRequest is the POST /api/v1/runs body. Zero-value cash
// parameters fall back to the server's configuration.
type startRunRequest struct {
	UseFixtures        bool         `json:"use_fixtures"`
	Trades             []tradeInput `json:"trades"`
	TradesFile         string       `json:"trades_file"`
	BenchmarkFile      string       `json:"benchmark_file"`
	BenchmarkTicker    string       `json:"benchmark_ticker"`
	StartingCash       string       `json:"starting_cash"`
	AllocationFraction float64      `json:"allocation_fraction"`
}

// tradeInput is one inline trade row, dates as YYYY-MM-DD and prices
// as decimal strings.
type tradeInput struct {
	EntryDate  string `json:"entry_date"`
	ExitDate   string `json:"exit_date"`
	EntryPrice string `json:"entry_price"`
	ExitPrice  string `json:"exit_price"`
	Ticker     string `json:"ticker"`
}

func (in tradeInput) toDomain() (domain.Trade, error) {
	entry, err := time.ParseInLocation(dateLayout, in.EntryDate, time.UTC)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("entry_date: %w", err)
	}
	exit, err := time.ParseInLocation(dateLayout, in.ExitDate, time.UTC)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("exit_date: %w", err)
	}
	entryPrice, err := decimal.NewFromString(in.EntryPrice)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("entry_price: %w", err)
	}
	exitPrice, err := decimal.NewFromString(in.ExitPrice)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("exit_price: %w", err)
	}
	ticker := in.Ticker
	if ticker == "" {
		ticker = domain.DefaultTicker
	}
	return domain.Trade{
		EntryTime:  entry,
		ExitTime:   exit,
		EntryPrice: entryPrice,
		ExitPrice:  exitPrice,
		Ticker:     ticker,
	}, nil
}

func (s *Server) handleStartRun(c *gin.Context) {
	var req startRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.UseFixtures && req.TradesFile == "" && len(req.Trades) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "one of use_fixtures, trades, or trades_file is required"})
		return
	}

	cash := req.StartingCash
	if cash == "" {
		cash = s.cfg.Simulation.StartingCash
	}
	startingCash, err := decimal.NewFromString(cash)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid starting_cash"})
		return
	}
	fraction := req.AllocationFraction
	if fraction == 0 {
		fraction = s.cfg.Simulation.AllocationFraction
	}

	runID := uuid.NewString()
	p := pipeline.New(s.cfg.Output.Dir, startingCash, decimal.NewFromFloat(fraction)).
		WithStores(s.stores).
		WithRunID(func() string { return runID }).
		WithPhaseHook(func(phase string) {
			s.hub.Publish(runID, Event{
				RunID:  runID,
				Status: domain.RunStatusRunning,
				Phase:  phase,
				Time:   time.Now().UTC(),
			})
		})

	switch {
	case req.UseFixtures:
		p = p.WithFixtures()
	case len(req.Trades) > 0:
		trades := make([]domain.Trade, 0, len(req.Trades))
		for i, in := range req.Trades {
			trade, err := in.toDomain()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("trades[%d]: %v", i, err)})
				return
			}
			trades = append(trades, trade)
		}
		p = p.WithTrades(trades)
	default:
		p = p.WithTradesFile(req.TradesFile)
	}
	ticker := req.BenchmarkTicker
	if ticker == "" {
		ticker = s.cfg.Benchmark.Ticker
	}
	switch {
	case req.BenchmarkFile != "":
		p = p.WithBenchmarkFile(ticker, req.BenchmarkFile)
	case req.BenchmarkTicker != "" && !req.UseFixtures:
		p = p.WithBenchmarkTicker(req.BenchmarkTicker)
	}

	go s.runPipeline(runID, p)

	c.JSON(http.StatusAccepted, gin.H{
		"run_id": runID,
		"status": domain.RunStatusRunning,
	})
}

// runPipeline executes a run in the background and publishes status
// events to WebSocket subscribers.
func (s *Server) runPipeline(runID string, p *pipeline.Pipeline) {
	ctx := context.Background()
	s.hub.Publish(runID, Event{RunID: runID, Status: domain.RunStatusRunning, Time: time.Now().UTC()})

	res, err := p.Run(ctx)
	if err != nil {
		s.logger.Error("run failed", zap.String("run_id", runID), zap.Error(err))
		s.hub.Publish(runID, Event{
			RunID:  runID,
			Status: domain.RunStatusFailed,
			Error:  err.Error(),
			Time:   time.Now().UTC(),
		})
		s.hub.Close(runID)
		return
	}

	s.logger.Info("run completed",
		zap.String("run_id", runID),
		zap.String("label", res.Run.Label),
		zap.Int("trades", res.Run.TradeCount),
	)
	s.hub.Publish(runID, Event{
		RunID:   runID,
		Status:  domain.RunStatusCompleted,
		Verdict: res.Report.Verdict,
		Time:    time.Now().UTC(),
	})
	s.hub.Close(runID)
}

func (s *Server) handleListRuns(c *gin.Context) {
	runs, err := s.stores.Runs.List(c.Request.Context())
	if err != nil {
		s.abortStoreError(c, err)
		return
	}
	out := make([]runResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, toRunResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, err := s.stores.Runs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRunResponse(run))
}

func (s *Server) handleGetRecords(c *gin.Context) {
	if s.stores.Records == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "daily record store not configured"})
		return
	}
	records, err := s.stores.Records.GetByRunID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortStoreError(c, err)
		return
	}
	out := make([]dailyRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toDailyRecordResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"records": out})
}

func (s *Server) handleGetResults(c *gin.Context) {
	if s.stores.Results == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "trade result store not configured"})
		return
	}
	results, err := s.stores.Results.GetByRunID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortStoreError(c, err)
		return
	}
	out := make([]tradeResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, toTradeResultResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

// handleGetComparison rebuilds the benchmark comparison from stored
// data. Comparison metrics are derived, not persisted, so this is the
// one read endpoint that computes.
func (s *Server) handleGetComparison(c *gin.Context) {
	if s.stores.Records == nil || s.stores.Bars == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "record and bar stores not configured"})
		return
	}

	ctx := c.Request.Context()
	run, err := s.stores.Runs.GetByID(ctx, c.Param("id"))
	if err != nil {
		s.abortStoreError(c, err)
		return
	}
	if run.BenchmarkTicker == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "run has no benchmark"})
		return
	}

	records, err := s.stores.Records.GetByRunID(ctx, run.RunID)
	if err != nil {
		s.abortStoreError(c, err)
		return
	}
	bars, err := s.stores.Bars.GetByTicker(ctx, run.BenchmarkTicker)
	if err != nil {
		s.abortStoreError(c, err)
		return
	}

	daily, err := benchmark.BuildBuyAndHold(bars, run.FirstDate, run.LastDate, run.StartingCash)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	metrics, err := benchmark.Compare(records, daily)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":     run.RunID,
		"ticker":     run.BenchmarkTicker,
		"comparison": metrics,
	})
}

func (s *Server) abortStoreError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	s.logger.Error("store error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
