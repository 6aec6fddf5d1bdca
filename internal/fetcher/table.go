package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a header row plus data rows, with columns addressable by name.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewTable indexes header case-insensitively.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows, index: make(map[string]int, len(header))}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
	return t
}

// Require returns an error naming the first missing column.
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.index[strings.ToLower(c)]; !ok {
			return eris.Errorf("table: missing column %q", c)
		}
	}
	return nil
}

// Value returns the trimmed cell in row under col, or "" when absent.
func (t *Table) Value(row []string, col string) string {
	i, ok := t.index[strings.ToLower(col)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadTable loads a CSV or XLSX file whose first row is the header. The
// format is chosen by extension; XLSX reads the first sheet.
func ReadTable(ctx context.Context, path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err := ReadXLSX(path, XLSXOptions{})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, eris.Errorf("table: %s is empty", path)
		}
		return NewTable(rows[0], rows[1:]), nil
	default:
		return readCSVTable(ctx, path)
	}
}

func readCSVTable(ctx context.Context, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "table: open %s", path)
	}
	defer func() { _ = f.Close() }()

	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(ctx, f, CSVOptions{HasHeader: true, HeaderCh: headerCh, TrimSpace: true})

	var rows [][]string
	for row := range rowCh {
		if len(row) == 1 && row[0] == "" {
			continue
		}
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "table: parse %s", path)
	}

	var header []string
	select {
	case header = <-headerCh:
	default:
		return nil, eris.Errorf("table: %s is empty", path)
	}
	return NewTable(header, rows), nil
}
