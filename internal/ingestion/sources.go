// Package ingestion loads raw tabular data from CSV, Excel and HTML
// files. Every loader produces the same normalization.RawTable shape;
// column mapping and row validation happen downstream in the
// normalization package.
package ingestion

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"cashlab/internal/domain"
	"cashlab/internal/normalization"
)

// Source provides one raw table from an external file.
type Source interface {
	// Fetch reads the whole source. Cells are returned uncleaned;
	// the normalizer owns trimming and coercion.
	Fetch(ctx context.Context) (*normalization.RawTable, error)
}

// FromPath picks a source implementation by file extension.
// Unknown extensions fall back to CSV, the most common export format.
func FromPath(path string) Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return &ExcelSource{Path: path}
	case ".html", ".htm":
		return &HTMLSource{Path: path}
	default:
		return &CSVSource{Path: path}
	}
}

// LoadTrades reads and normalizes a trade file in one step.
func LoadTrades(ctx context.Context, path string) ([]domain.Trade, normalization.DropCounts, error) {
	table, err := FromPath(path).Fetch(ctx)
	if err != nil {
		return nil, normalization.DropCounts{}, fmt.Errorf("load %s: %w", path, err)
	}
	return normalization.NormalizeTrades(table)
}

// LoadBenchmark reads and normalizes a benchmark price file in one step.
func LoadBenchmark(ctx context.Context, path string) ([]domain.BenchmarkBar, normalization.DropCounts, error) {
	table, err := FromPath(path).Fetch(ctx)
	if err != nil {
		return nil, normalization.DropCounts{}, fmt.Errorf("load %s: %w", path, err)
	}
	return normalization.NormalizeBenchmark(table)
}
