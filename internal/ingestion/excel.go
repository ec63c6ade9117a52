package ingestion

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"cashlab/internal/normalization"
)

// ExcelSource reads the first sheet of an .xlsx/.xls workbook, first row
// as headers.
type ExcelSource struct {
	Path string
}

var _ Source = (*ExcelSource)(nil)

// Fetch implements Source.
func (s *ExcelSource) Fetch(ctx context.Context) (*normalization.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", s.Path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &normalization.RawTable{}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return &normalization.RawTable{}, nil
	}

	return &normalization.RawTable{
		Columns: rows[0],
		Rows:    rows[1:],
	}, nil
}
