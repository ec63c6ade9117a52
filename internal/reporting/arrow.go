package reporting

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"cashlab/internal/domain"
)

// WriteDailyRecordsArrow writes the daily trajectory as an Arrow IPC
// stream. Dates go out as Date32, money as Float64; dataframe readers
// load the stream directly.
func WriteDailyRecordsArrow(w io.Writer, records []domain.DailyRecord) error {
	pool := memory.NewGoAllocator()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "date", Type: arrow.FixedWidthTypes.Date32},
		{Name: "cash_balance", Type: arrow.PrimitiveTypes.Float64},
		{Name: "active_positions", Type: arrow.PrimitiveTypes.Int32},
		{Name: "position_value", Type: arrow.PrimitiveTypes.Float64},
		{Name: "total_portfolio", Type: arrow.PrimitiveTypes.Float64},
	}, nil)

	dates := make([]arrow.Date32, len(records))
	cash := make([]float64, len(records))
	active := make([]int32, len(records))
	position := make([]float64, len(records))
	total := make([]float64, len(records))
	for i, r := range records {
		dates[i] = arrow.Date32FromTime(r.Date)
		cash[i] = r.CashBalance.InexactFloat64()
		active[i] = int32(r.ActivePositions)
		position[i] = r.PositionValue.InexactFloat64()
		total[i] = r.TotalPortfolio.InexactFloat64()
	}

	dateBuilder := array.NewDate32Builder(pool)
	dateBuilder.AppendValues(dates, nil)
	dateArray := dateBuilder.NewDate32Array()

	cashBuilder := array.NewFloat64Builder(pool)
	cashBuilder.AppendValues(cash, nil)
	cashArray := cashBuilder.NewFloat64Array()

	activeBuilder := array.NewInt32Builder(pool)
	activeBuilder.AppendValues(active, nil)
	activeArray := activeBuilder.NewInt32Array()

	positionBuilder := array.NewFloat64Builder(pool)
	positionBuilder.AppendValues(position, nil)
	positionArray := positionBuilder.NewFloat64Array()

	totalBuilder := array.NewFloat64Builder(pool)
	totalBuilder.AppendValues(total, nil)
	totalArray := totalBuilder.NewFloat64Array()

	record := array.NewRecord(schema, []arrow.Array{
		dateArray, cashArray, activeArray, positionArray, totalArray,
	}, int64(len(records)))
	defer record.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(schema))
	defer writer.Close()

	if err := writer.Write(record); err != nil {
		return fmt.Errorf("write daily records arrow: %w", err)
	}
	return nil
}

// WriteTradeResultsArrow writes recalculated trade outcomes as an Arrow
// IPC stream.
func WriteTradeResultsArrow(w io.Writer, results []domain.TradeResult) error {
	pool := memory.NewGoAllocator()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "entry_date", Type: arrow.FixedWidthTypes.Date32},
		{Name: "exit_date", Type: arrow.FixedWidthTypes.Date32},
		{Name: "ticker", Type: arrow.BinaryTypes.String},
		{Name: "entry_price", Type: arrow.PrimitiveTypes.Float64},
		{Name: "exit_price", Type: arrow.PrimitiveTypes.Float64},
		{Name: "cash_available", Type: arrow.PrimitiveTypes.Float64},
		{Name: "position_size", Type: arrow.PrimitiveTypes.Float64},
		{Name: "actual_shares", Type: arrow.PrimitiveTypes.Int64},
		{Name: "actual_cost", Type: arrow.PrimitiveTypes.Float64},
		{Name: "actual_proceeds", Type: arrow.PrimitiveTypes.Float64},
		{Name: "actual_pnl", Type: arrow.PrimitiveTypes.Float64},
		{Name: "return_pct", Type: arrow.PrimitiveTypes.Float64},
	}, nil)

	n := len(results)
	entryDates := make([]arrow.Date32, n)
	exitDates := make([]arrow.Date32, n)
	tickers := make([]string, n)
	entryPrices := make([]float64, n)
	exitPrices := make([]float64, n)
	cashAvail := make([]float64, n)
	positionSizes := make([]float64, n)
	shares := make([]int64, n)
	costs := make([]float64, n)
	proceeds := make([]float64, n)
	pnls := make([]float64, n)
	returns := make([]float64, n)
	for i, r := range results {
		entryDates[i] = arrow.Date32FromTime(r.EntryDate)
		exitDates[i] = arrow.Date32FromTime(r.ExitDate)
		tickers[i] = r.Ticker
		entryPrices[i] = r.EntryPrice.InexactFloat64()
		exitPrices[i] = r.ExitPrice.InexactFloat64()
		cashAvail[i] = r.CashAvailable.InexactFloat64()
		positionSizes[i] = r.PositionSize.InexactFloat64()
		shares[i] = r.ActualShares
		costs[i] = r.ActualCost.InexactFloat64()
		proceeds[i] = r.ActualProceeds.InexactFloat64()
		pnls[i] = r.ActualPnL.InexactFloat64()
		returns[i] = r.ReturnPct
	}

	entryDateBuilder := array.NewDate32Builder(pool)
	entryDateBuilder.AppendValues(entryDates, nil)
	entryDateArray := entryDateBuilder.NewDate32Array()

	exitDateBuilder := array.NewDate32Builder(pool)
	exitDateBuilder.AppendValues(exitDates, nil)
	exitDateArray := exitDateBuilder.NewDate32Array()

	tickerBuilder := array.NewStringBuilder(pool)
	tickerBuilder.AppendValues(tickers, nil)
	tickerArray := tickerBuilder.NewStringArray()

	floatArrays := make([]arrow.Array, 0, 8)
	for _, vals := range [][]float64{entryPrices, exitPrices, cashAvail, positionSizes} {
		b := array.NewFloat64Builder(pool)
		b.AppendValues(vals, nil)
		floatArrays = append(floatArrays, b.NewFloat64Array())
	}

	sharesBuilder := array.NewInt64Builder(pool)
	sharesBuilder.AppendValues(shares, nil)
	sharesArray := sharesBuilder.NewInt64Array()

	for _, vals := range [][]float64{costs, proceeds, pnls, returns} {
		b := array.NewFloat64Builder(pool)
		b.AppendValues(vals, nil)
		floatArrays = append(floatArrays, b.NewFloat64Array())
	}

	record := array.NewRecord(schema, []arrow.Array{
		entryDateArray, exitDateArray, tickerArray,
		floatArrays[0], floatArrays[1], floatArrays[2], floatArrays[3],
		sharesArray,
		floatArrays[4], floatArrays[5], floatArrays[6], floatArrays[7],
	}, int64(n))
	defer record.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(schema))
	defer writer.Close()

	if err := writer.Write(record); err != nil {
		return fmt.Errorf("write trade results arrow: %w", err)
	}
	return nil
}
