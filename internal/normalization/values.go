package normalization

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// nonNumeric strips everything a price cell may carry around the number:
// currency symbols, thousands separators, whitespace, trailing units.
var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// ParsePrice parses a cell into a decimal price. Returns false for
// blanks and anything that is not a number once decorations are removed.
func ParsePrice(raw string) (decimal.Decimal, bool) {
	s := nonNumeric.ReplaceAllString(strings.TrimSpace(raw), "")
	if s == "" || s == "-" || s == "." {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// CleanCell trims whitespace and BOM noise from a cell.
func CleanCell(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))
}

// isBlankRow reports whether every cell in the row is empty after
// cleaning.
func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if CleanCell(c) != "" {
			return false
		}
	}
	return true
}
