package normalization

import (
	"regexp"
	"strings"

	"cashlab/internal/domain"
)

// Canonical trade field names, in the order the exporter publishes them.
const (
	FieldEntryTime  = "EntryTime"
	FieldExitTime   = "ExitTime"
	FieldEntryPrice = "EntryPrice"
	FieldExitPrice  = "ExitPrice"
	FieldTicker     = "Ticker"
)

// requiredFields must all be mapped for a trade table to be usable.
// Ticker is optional and defaults to domain.DefaultTicker.
var requiredFields = []string{FieldEntryTime, FieldExitTime, FieldEntryPrice, FieldExitPrice}

// columnPatterns maps each canonical field to the header shapes seen in
// the wild. Matching is tried in three passes: exact (case- and
// separator-insensitive), regex, then string similarity.
var columnPatterns = map[string][]*regexp.Regexp{
	FieldEntryTime: compileAll(
		`entry.?time`, `entry.?date`, `buy.?time`, `buy.?date`,
		`purchase.?time`, `purchase.?date`, `open.?time`, `open.?date`,
	),
	FieldExitTime: compileAll(
		`exit.?time`, `exit.?date`, `sell.?time`, `sell.?date`,
		`sale.?time`, `sale.?date`, `close.?time`, `close.?date`,
	),
	FieldEntryPrice: compileAll(
		`entry.?price`, `buy.?price`, `purchase.?price`, `entry.?cost`, `open.?price`,
	),
	FieldExitPrice: compileAll(
		`exit.?price`, `sell.?price`, `sale.?price`, `exit.?cost`, `close.?price`,
	),
	FieldTicker: compileAll(
		`ticker`, `symbol`, `stock`, `instrument`, `security`, `asset`,
	),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// DetectColumns maps canonical field names to column indexes in cols.
// Returns DataFormatError listing every required field that could not be
// matched. An unmatched Ticker is not an error.
func DetectColumns(cols []string) (map[string]int, error) {
	mapping := make(map[string]int)
	taken := make(map[int]bool)

	fields := append(append([]string{}, requiredFields...), FieldTicker)
	for _, field := range fields {
		if idx, ok := matchColumn(cols, columnPatterns[field], taken); ok {
			mapping[field] = idx
			taken[idx] = true
		}
	}

	var missing []string
	for _, field := range requiredFields {
		if _, ok := mapping[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.DataFormatError{Missing: missing}
	}
	return mapping, nil
}

// matchColumn tries exact, then regex, then similarity matching against
// the given patterns, skipping columns already claimed by another field.
func matchColumn(cols []string, patterns []*regexp.Regexp, taken map[int]bool) (int, bool) {
	// Exact: header equals a pattern body once separators are stripped.
	for _, re := range patterns {
		want := collapse(patternBody(re))
		for i, col := range cols {
			if !taken[i] && collapse(col) == want {
				return i, true
			}
		}
	}

	// Regex anywhere in the header.
	for _, re := range patterns {
		for i, col := range cols {
			if !taken[i] && re.MatchString(strings.TrimSpace(col)) {
				return i, true
			}
		}
	}

	// Nearest header by bigram similarity; 0.6 cutoff keeps unrelated
	// headers from being claimed.
	const cutoff = 0.6
	best, bestScore := -1, cutoff
	for _, re := range patterns {
		want := collapse(patternBody(re))
		for i, col := range cols {
			if taken[i] {
				continue
			}
			if score := similarity(want, collapse(col)); score > bestScore {
				best, bestScore = i, score
			}
		}
	}
	if best >= 0 {
		return best, true
	}
	return 0, false
}

// patternBody strips the case-insensitive prefix and the optional
// separator so `entry.?time` compares as "entrytime".
func patternBody(re *regexp.Regexp) string {
	s := strings.TrimPrefix(re.String(), "(?i)")
	return strings.ReplaceAll(s, ".?", "")
}

// collapse lowercases a header and removes spaces, underscores, hyphens
// and BOM noise so "Entry Time", "entry_time" and "ENTRYTIME" all agree.
func collapse(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\uFEFF"))
	s = strings.ToLower(s)
	replacer := strings.NewReplacer(" ", "", "_", "", "-", "", ".", "")
	return replacer.Replace(s)
}

// similarity is the Dice coefficient over character bigrams, a cheap
// stand-in for sequence-matcher ratios that behaves well on short
// header strings.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) < 2 || len(b) < 2 {
		return 0
	}

	bigrams := func(s string) map[string]int {
		m := make(map[string]int)
		for i := 0; i+2 <= len(s); i++ {
			m[s[i:i+2]]++
		}
		return m
	}

	aa, bb := bigrams(a), bigrams(b)
	overlap := 0
	for g, n := range aa {
		if m, ok := bb[g]; ok {
			if m < n {
				overlap += m
			} else {
				overlap += n
			}
		}
	}
	return 2 * float64(overlap) / float64(len(a)-1+len(b)-1)
}
