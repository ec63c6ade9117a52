package normalization

import (
	"sort"
	"strings"

	"cashlab/internal/domain"
)

// NormalizeBenchmark maps a raw price table onto benchmark bars, sorted
// by date ascending. The date column is the one named Date or the first
// date-like header; the price column preference is Adjusted_Close over
// Close over anything close/price/adj-like, because adjusted closes
// survive splits and dividends.
func NormalizeBenchmark(table *RawTable) ([]domain.BenchmarkBar, DropCounts, error) {
	if table == nil || len(table.Columns) == 0 {
		return nil, DropCounts{}, &domain.EmptyInputError{What: "table columns"}
	}

	dateIdx, ok := findBenchmarkDateColumn(table.Columns)
	if !ok {
		return nil, DropCounts{}, &domain.DataFormatError{Missing: []string{"Date"}}
	}
	priceIdx, ok := findBenchmarkPriceColumn(table.Columns, dateIdx)
	if !ok {
		return nil, DropCounts{}, &domain.DataFormatError{Missing: []string{"Close"}}
	}

	var (
		bars  []domain.BenchmarkBar
		drops DropCounts
	)
	for i := range table.Rows {
		if isBlankRow(table.Rows[i]) {
			drops.Blank++
			continue
		}

		date, okDate := ParseDate(table.Cell(i, dateIdx))
		if !okDate {
			drops.BadDate++
			continue
		}
		price, okPrice := ParsePrice(table.Cell(i, priceIdx))
		if !okPrice || !price.IsPositive() {
			drops.NonPositivePrice++
			continue
		}

		bars = append(bars, domain.BenchmarkBar{
			Date:  domain.Day(date),
			Price: price,
		})
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars, drops, nil
}

func findBenchmarkDateColumn(cols []string) (int, bool) {
	for i, col := range cols {
		if collapse(col) == "date" {
			return i, true
		}
	}
	for i, col := range cols {
		c := collapse(col)
		if strings.Contains(c, "date") || strings.Contains(c, "time") {
			return i, true
		}
	}
	return 0, false
}

func findBenchmarkPriceColumn(cols []string, dateIdx int) (int, bool) {
	for _, want := range []string{"adjustedclose", "adjclose"} {
		for i, col := range cols {
			if i != dateIdx && collapse(col) == want {
				return i, true
			}
		}
	}
	for i, col := range cols {
		if i != dateIdx && collapse(col) == "close" {
			return i, true
		}
	}
	for i, col := range cols {
		if i == dateIdx {
			continue
		}
		c := collapse(col)
		if strings.Contains(c, "close") || strings.Contains(c, "price") || strings.Contains(c, "adj") {
			return i, true
		}
	}
	return 0, false
}
