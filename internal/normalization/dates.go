package normalization

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order. US month-first forms sit before the
// EU day-first ones, matching how the prior exports were produced.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"02/01/2006",
	"02/01/2006 15:04:05",
	"20060102",
	"01-02-2006",
	"02-01-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// excelEpoch is 1899-12-30: two days before Excel's nominal 1900-01-01
// origin, which absorbs both the 1-based day count and the phantom
// 1900-02-29 that Excel inherited from Lotus 1-2-3.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate parses a cell into a UTC timestamp. It accepts the layout
// list above, Excel serial day numbers (with fractional time-of-day),
// and unix seconds or milliseconds when the magnitude is unambiguous.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return parseNumericDate(n)
	}

	return time.Time{}, false
}

// parseNumericDate disambiguates a bare number by magnitude:
// Excel serials live in the tens of thousands, unix seconds in the
// billions, unix milliseconds in the trillions.
func parseNumericDate(n float64) (time.Time, bool) {
	switch {
	case n > 20000 && n < 80000:
		days := int(n)
		frac := n - float64(days)
		t := excelEpoch.AddDate(0, 0, days)
		return t.Add(time.Duration(frac * float64(24*time.Hour))), true
	case n > 1e9 && n < 1e11:
		return time.Unix(int64(n), 0).UTC(), true
	case n > 1e12 && n < 1e14:
		return time.UnixMilli(int64(n)).UTC(), true
	default:
		return time.Time{}, false
	}
}
