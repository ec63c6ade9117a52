package server

import (
	"time"

	"cashlab/internal/domain"
)

const dateLayout = "2006-01-02"

// runResponse is the JSON shape of an analysis run. Decimal amounts are
// serialized as strings so clients never see float rounding.
type runResponse struct {
	RunID              string `json:"run_id"`
	Label              string `json:"label"`
	Status             string `json:"status"`
	StartingCash       string `json:"starting_cash"`
	AllocationFraction string `json:"allocation_fraction"`
	BenchmarkTicker    string `json:"benchmark_ticker,omitempty"`
	TradeCount         int    `json:"trade_count"`
	DroppedRows        int    `json:"dropped_rows"`
	SkippedTrades      int    `json:"skipped_trades"`
	FirstDate          string `json:"first_date,omitempty"`
	LastDate           string `json:"last_date,omitempty"`
	FinalPortfolio     string `json:"final_portfolio"`
	Error              string `json:"error,omitempty"`
	CreatedAt          string `json:"created_at"`
	CompletedAt        string `json:"completed_at,omitempty"`
}

func toRunResponse(r *domain.AnalysisRun) runResponse {
	return runResponse{
		RunID:              r.RunID,
		Label:              r.Label,
		Status:             r.Status,
		StartingCash:       r.StartingCash.String(),
		AllocationFraction: r.AllocationFraction.String(),
		BenchmarkTicker:    r.BenchmarkTicker,
		TradeCount:         r.TradeCount,
		DroppedRows:        r.DroppedRows,
		SkippedTrades:      r.SkippedTrades,
		FirstDate:          formatDate(r.FirstDate),
		LastDate:           formatDate(r.LastDate),
		FinalPortfolio:     r.FinalPortfolio.String(),
		Error:              r.Error,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
		CompletedAt:        formatTime(r.CompletedAt),
	}
}

type dailyRecordResponse struct {
	Date            string `json:"date"`
	CashBalance     string `json:"cash_balance"`
	ActivePositions int    `json:"active_positions"`
	PositionValue   string `json:"position_value"`
	TotalPortfolio  string `json:"total_portfolio"`
}

func toDailyRecordResponse(r domain.DailyRecord) dailyRecordResponse {
	return dailyRecordResponse{
		Date:            r.Date.Format(dateLayout),
		CashBalance:     r.CashBalance.String(),
		ActivePositions: r.ActivePositions,
		PositionValue:   r.PositionValue.String(),
		TotalPortfolio:  r.TotalPortfolio.String(),
	}
}

type tradeResultResponse struct {
	EntryDate      string  `json:"entry_date"`
	ExitDate       string  `json:"exit_date"`
	Ticker         string  `json:"ticker"`
	EntryPrice     string  `json:"entry_price"`
	ExitPrice      string  `json:"exit_price"`
	CashAvailable  string  `json:"cash_available"`
	PositionSize   string  `json:"position_size"`
	ActualShares   int64   `json:"actual_shares"`
	ActualCost     string  `json:"actual_cost"`
	ActualProceeds string  `json:"actual_proceeds"`
	ActualPnL      string  `json:"actual_pnl"`
	ReturnPct      float64 `json:"return_pct"`
}

func toTradeResultResponse(r domain.TradeResult) tradeResultResponse {
	return tradeResultResponse{
		EntryDate:      r.EntryDate.Format(dateLayout),
		ExitDate:       r.ExitDate.Format(dateLayout),
		Ticker:         r.Ticker,
		EntryPrice:     r.EntryPrice.String(),
		ExitPrice:      r.ExitPrice.String(),
		CashAvailable:  r.CashAvailable.String(),
		PositionSize:   r.PositionSize.String(),
		ActualShares:   r.ActualShares,
		ActualCost:     r.ActualCost.String(),
		ActualProceeds: r.ActualProceeds.String(),
		ActualPnL:      r.ActualPnL.String(),
		ReturnPct:      r.ReturnPct,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
