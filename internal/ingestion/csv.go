package ingestion

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"cashlab/internal/normalization"
)

// CSVSource reads a delimited text file. Exports from brokers arrive in
// a zoo of encodings, so decoding is tried in order: UTF-16 when a BOM
// says so, then UTF-8, then Windows-1252, then ISO-8859-1.
type CSVSource struct {
	Path string

	// ShowProgress renders a byte-level progress bar on stderr while
	// reading; useful for multi-year trade logs.
	ShowProgress bool
}

var _ Source = (*CSVSource)(nil)

// Fetch implements Source.
func (s *CSVSource) Fetch(ctx context.Context) (*normalization.RawTable, error) {
	raw, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	decoded, err := decodeText(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Path, err)
	}

	reader := csv.NewReader(strings.NewReader(decoded))
	reader.FieldsPerRecord = -1 // tolerate ragged rows
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", s.Path, err)
	}
	if len(records) == 0 {
		return &normalization.RawTable{}, nil
	}

	return &normalization.RawTable{
		Columns: records[0],
		Rows:    records[1:],
	}, nil
}

func (s *CSVSource) readAll(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if s.ShowProgress {
		if info, err := f.Stat(); err == nil {
			bar := progressbar.DefaultBytes(info.Size(), "reading "+s.Path)
			r = io.TeeReader(r, bar)
		}
	}
	return io.ReadAll(r)
}

// decodeText converts raw file bytes to a UTF-8 string. A UTF-16 BOM is
// authoritative; otherwise valid UTF-8 is taken as is and the legacy
// single-byte codepages are the fallback.
func decodeText(raw []byte) (string, error) {
	if len(raw) >= 2 {
		isLE := raw[0] == 0xFF && raw[1] == 0xFE
		isBE := raw[0] == 0xFE && raw[1] == 0xFF
		if isLE || isBE {
			dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
			if isBE {
				dec = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
			}
			return transformBytes(raw, dec)
		}
	}

	if utf8.Valid(raw) {
		// Strip a UTF-8 BOM if present.
		return strings.TrimPrefix(string(raw), "\uFEFF"), nil
	}

	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		if out, err := transformBytes(raw, cm.NewDecoder()); err == nil {
			return out, nil
		}
	}
	return "", fmt.Errorf("unrecognized text encoding")
}

func transformBytes(raw []byte, dec *encoding.Decoder) (string, error) {
	out, err := io.ReadAll(transform.NewReader(strings.NewReader(string(raw)), dec))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
