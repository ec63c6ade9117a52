// Package normalization turns arbitrary tabular trade exports into the
// canonical trade shape. Column headers are matched fuzzily, dates are
// parsed from a wide range of formats including Excel serials, and rows
// that violate the trade invariants are dropped with per-reason counts.
package normalization

// RawTable is the loader-agnostic tabular shape every ingestion source
// produces: a header row plus string cells. Cell values are uncleaned;
// normalization owns all trimming and coercion.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// Cell returns the cell at row i, column j, or "" when the row is short.
func (t *RawTable) Cell(i, j int) string {
	if j < 0 || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// DropCounts reports how many rows each validation rule rejected.
type DropCounts struct {
	Blank             int // entirely empty rows
	BadDate           int // unparseable entry or exit date
	NonPositivePrice  int // entry or exit price missing, zero or negative
	ExitNotAfterEntry int // exit on or before entry
}

// Total is the number of rows dropped for any reason.
func (d DropCounts) Total() int {
	return d.Blank + d.BadDate + d.NonPositivePrice + d.ExitNotAfterEntry
}
