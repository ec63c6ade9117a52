package normalization

import (
	"cashlab/internal/domain"
)

// NormalizeTrades maps a raw table onto canonical trades. Column headers
// are detected fuzzily; rows that fail validation are dropped and
// counted per reason rather than failing the batch. The caller decides
// whether zero surviving trades is fatal.
func NormalizeTrades(table *RawTable) ([]domain.Trade, DropCounts, error) {
	if table == nil || len(table.Columns) == 0 {
		return nil, DropCounts{}, &domain.EmptyInputError{What: "table columns"}
	}

	mapping, err := DetectColumns(table.Columns)
	if err != nil {
		return nil, DropCounts{}, err
	}

	tickerIdx, hasTicker := mapping[FieldTicker]

	var (
		trades []domain.Trade
		drops  DropCounts
	)
	for i := range table.Rows {
		if isBlankRow(table.Rows[i]) {
			drops.Blank++
			continue
		}

		entryTime, okEntry := ParseDate(table.Cell(i, mapping[FieldEntryTime]))
		exitTime, okExit := ParseDate(table.Cell(i, mapping[FieldExitTime]))
		if !okEntry || !okExit {
			drops.BadDate++
			continue
		}

		entryPrice, okEntryPrice := ParsePrice(table.Cell(i, mapping[FieldEntryPrice]))
		exitPrice, okExitPrice := ParsePrice(table.Cell(i, mapping[FieldExitPrice]))
		if !okEntryPrice || !okExitPrice || !entryPrice.IsPositive() || !exitPrice.IsPositive() {
			drops.NonPositivePrice++
			continue
		}

		if !domain.Day(exitTime).After(domain.Day(entryTime)) {
			drops.ExitNotAfterEntry++
			continue
		}

		ticker := domain.DefaultTicker
		if hasTicker {
			if v := CleanCell(table.Cell(i, tickerIdx)); v != "" {
				ticker = v
			}
		}

		trades = append(trades, domain.Trade{
			EntryTime:  domain.Day(entryTime),
			ExitTime:   domain.Day(exitTime),
			EntryPrice: entryPrice,
			ExitPrice:  exitPrice,
			Ticker:     ticker,
		})
	}

	return trades, drops, nil
}
