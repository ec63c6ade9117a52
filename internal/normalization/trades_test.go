package normalization

import (
	"errors"
	"testing"
	"time"

	"cashlab/internal/domain"
)

func TestDetectColumns_ExactNames(t *testing.T) {
	cols := []string{"EntryTime", "ExitTime", "EntryPrice", "ExitPrice", "Ticker"}
	mapping, err := DetectColumns(cols)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, field := range []string{FieldEntryTime, FieldExitTime, FieldEntryPrice, FieldExitPrice, FieldTicker} {
		if mapping[field] != i {
			t.Errorf("%s: expected index %d, got %d", field, i, mapping[field])
		}
	}
}

func TestDetectColumns_Variants(t *testing.T) {
	cases := []struct {
		name string
		cols []string
	}{
		{"snake_case", []string{"entry_date", "exit_date", "entry_price", "exit_price", "symbol"}},
		{"spaced", []string{"Entry Time", "Exit Time", "Entry Price", "Exit Price", "Symbol"}},
		{"buy_sell", []string{"Buy Date", "Sell Date", "Buy Price", "Sell Price", "Instrument"}},
		{"purchase_sale", []string{"purchase_time", "sale_time", "purchase price", "sale price", "stock"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapping, err := DetectColumns(tc.cols)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(mapping) != 5 {
				t.Errorf("expected all 5 fields mapped, got %v", mapping)
			}
		})
	}
}

func TestBOMPrefixedInput(t *testing.T) {
	mapping, err := DetectColumns([]string{"\ufeffEntryTime", "ExitTime", "EntryPrice", "ExitPrice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mapping[FieldEntryTime] != 0 {
		t.Errorf("BOM-prefixed header not mapped: %v", mapping)
	}

	got, ok := ParseDate("\ufeff2023-01-15")
	if !ok || !got.Equal(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("BOM-prefixed date: got %s, ok=%v", got, ok)
	}

	if got := CleanCell("\ufeff 98.96 "); got != "98.96" {
		t.Errorf("BOM-prefixed cell: got %q", got)
	}
}

func TestDetectColumns_MissingRequired(t *testing.T) {
	_, err := DetectColumns([]string{"foo", "bar", "baz"})
	var formatErr *domain.DataFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected DataFormatError, got %v", err)
	}
	if len(formatErr.Missing) != 4 {
		t.Errorf("expected 4 missing fields, got %v", formatErr.Missing)
	}
}

func TestDetectColumns_TickerOptional(t *testing.T) {
	mapping, err := DetectColumns([]string{"EntryTime", "ExitTime", "EntryPrice", "ExitPrice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := mapping[FieldTicker]; ok {
		t.Errorf("ticker should be unmapped, got %v", mapping)
	}
}

func TestParseDate_Layouts(t *testing.T) {
	want := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	cases := []string{
		"2023-01-15",
		"01/15/2023",
		"20230115",
		"01-15-2023",
		"January 15, 2023",
		"Jan 15, 2023",
		"15 January 2023",
	}
	for _, raw := range cases {
		got, ok := ParseDate(raw)
		if !ok {
			t.Errorf("%q: parse failed", raw)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("%q: expected %s, got %s", raw, want, got)
		}
	}
}

func TestParseDate_WithTime(t *testing.T) {
	got, ok := ParseDate("2023-01-15 09:30:00")
	if !ok {
		t.Fatal("parse failed")
	}
	want := time.Date(2023, 1, 15, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestParseDate_ExcelSerial(t *testing.T) {
	// 44927 days after 1899-12-30 is 2023-01-01.
	got, ok := ParseDate("44927")
	if !ok {
		t.Fatal("parse failed")
	}
	want := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}

	// Fractional serials carry time-of-day: .5 is noon.
	got, ok = ParseDate("44927.5")
	if !ok {
		t.Fatal("parse failed")
	}
	if got.Hour() != 12 {
		t.Errorf("expected noon, got %s", got)
	}
}

func TestParseDate_UnixSecondsAndMillis(t *testing.T) {
	got, ok := ParseDate("1673740800") // 2023-01-15T00:00:00Z
	if !ok || !got.Equal(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unix seconds: got %s, ok=%v", got, ok)
	}

	got, ok = ParseDate("1673740800000")
	if !ok || !got.Equal(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unix millis: got %s, ok=%v", got, ok)
	}
}

func TestParseDate_Garbage(t *testing.T) {
	for _, raw := range []string{"", "not a date", "123"} {
		if _, ok := ParseDate(raw); ok {
			t.Errorf("%q: expected parse failure", raw)
		}
	}
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"98.96", "98.96"},
		{"$1,234.50", "1234.50"},
		{"  45.20 ", "45.20"},
		{"-3.5", "-3.5"},
	}
	for _, tc := range cases {
		got, ok := ParsePrice(tc.raw)
		if !ok {
			t.Errorf("%q: parse failed", tc.raw)
			continue
		}
		if got.String() != trimZeros(tc.want) {
			t.Errorf("%q: expected %s, got %s", tc.raw, tc.want, got)
		}
	}

	for _, raw := range []string{"", "n/a", "$", "--"} {
		if _, ok := ParsePrice(raw); ok {
			t.Errorf("%q: expected parse failure", raw)
		}
	}
}

// trimZeros matches decimal.String(), which drops trailing zeros.
func trimZeros(s string) string {
	d, _ := ParsePrice(s)
	return d.String()
}

func TestNormalizeTrades(t *testing.T) {
	table := &RawTable{
		Columns: []string{"Entry Date", "Exit Date", "Buy Price", "Sell Price", "Symbol"},
		Rows: [][]string{
			{"2017-01-11", "2017-03-14", "98.96", "109.07", "AAPL"},
			{"", "", "", "", ""},                                  // blank
			{"not-a-date", "2017-03-27", "37.75", "37.49", "GNRC"}, // bad date
			{"2017-01-18", "2017-02-06", "-9.88", "13.63", "AMD"},  // negative price
			{"2017-01-20", "2017-01-20", "91.70", "111.85", "ALGN"}, // exit == entry
			{"2017-01-25", "2017-04-15", "$45.20", "52.30", ""},     // ticker blank
		},
	}

	trades, drops, err := NormalizeTrades(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(trades) != 2 {
		t.Fatalf("expected 2 surviving trades, got %d", len(trades))
	}
	if drops.Blank != 1 || drops.BadDate != 1 || drops.NonPositivePrice != 1 || drops.ExitNotAfterEntry != 1 {
		t.Errorf("unexpected drop counts: %+v", drops)
	}
	if drops.Total() != 4 {
		t.Errorf("expected 4 total drops, got %d", drops.Total())
	}

	if trades[0].Ticker != "AAPL" {
		t.Errorf("expected ticker AAPL, got %s", trades[0].Ticker)
	}
	if trades[1].Ticker != domain.DefaultTicker {
		t.Errorf("expected default ticker, got %s", trades[1].Ticker)
	}
	if trades[1].EntryPrice.String() != "45.2" {
		t.Errorf("expected cleaned price 45.2, got %s", trades[1].EntryPrice)
	}
}

func TestNormalizeTrades_UnmappableColumns(t *testing.T) {
	table := &RawTable{
		Columns: []string{"a", "b", "c"},
		Rows:    [][]string{{"1", "2", "3"}},
	}
	_, _, err := NormalizeTrades(table)
	var formatErr *domain.DataFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected DataFormatError, got %v", err)
	}
}

func TestNormalizeBenchmark(t *testing.T) {
	table := &RawTable{
		Columns: []string{"Date", "Open", "Close", "Adjusted_Close"},
		Rows: [][]string{
			{"2017-01-12", "226.0", "227.05", "205.10"},
			{"2017-01-11", "225.0", "226.50", "204.60"}, // out of order
			{"bad", "1", "2", "3"},
		},
	}

	bars, drops, err := NormalizeBenchmark(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if drops.BadDate != 1 {
		t.Errorf("expected 1 bad-date drop, got %+v", drops)
	}

	// Adjusted close preferred over close, sorted ascending.
	if bars[0].Price.String() != "204.6" {
		t.Errorf("expected adjusted close 204.6 first, got %s", bars[0].Price)
	}
	if !bars[0].Date.Before(bars[1].Date) {
		t.Errorf("bars not sorted ascending")
	}
}

func TestNormalizeBenchmark_CloseFallback(t *testing.T) {
	table := &RawTable{
		Columns: []string{"Date", "Close"},
		Rows:    [][]string{{"2017-01-11", "226.50"}},
	}
	bars, _, err := NormalizeBenchmark(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bars[0].Price.String() != "226.5" {
		t.Errorf("expected close 226.5, got %s", bars[0].Price)
	}
}

func TestNormalizeBenchmark_NoPriceColumn(t *testing.T) {
	table := &RawTable{
		Columns: []string{"Date", "Volume"},
		Rows:    [][]string{{"2017-01-11", "1000"}},
	}
	_, _, err := NormalizeBenchmark(table)
	var formatErr *domain.DataFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected DataFormatError, got %v", err)
	}
}
