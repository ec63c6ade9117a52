package ingestion

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cashlab/internal/normalization"
)

// HTMLSource reads the first <table> of an HTML document. Headers come
// from <th> cells when present, otherwise from the first row.
type HTMLSource struct {
	Path string
}

var _ Source = (*HTMLSource)(nil)

// Fetch implements Source.
func (s *HTMLSource) Fetch(ctx context.Context) (*normalization.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", s.Path, err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no <table> found in %s", s.Path)
	}

	var columns []string
	table.Find("th").Each(func(_ int, cell *goquery.Selection) {
		columns = append(columns, strings.TrimSpace(cell.Text()))
	})

	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})

	// No <th> header: promote the first data row.
	if len(columns) == 0 && len(rows) > 0 {
		columns = rows[0]
		rows = rows[1:]
	}

	return &normalization.RawTable{
		Columns: columns,
		Rows:    rows,
	}, nil
}
