package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

// XLSXOptions selects the sheet to read.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // overrides SheetIndex
	SkipRows   int
}

// ReadXLSX returns the rows of one sheet as strings.
func ReadXLSX(path string, opts XLSXOptions) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}
	defer func() { _ = f.Close() }()

	sheet, err := sheetName(f, opts)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: read sheet %q", sheet)
	}
	if opts.SkipRows >= len(rows) {
		return nil, nil
	}
	return rows[opts.SkipRows:], nil
}

func sheetName(f *excelize.File, opts XLSXOptions) (string, error) {
	sheets := f.GetSheetList()
	if opts.SheetName != "" {
		for _, s := range sheets {
			if s == opts.SheetName {
				return s, nil
			}
		}
		return "", eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
	}
	if opts.SheetIndex < 0 || opts.SheetIndex >= len(sheets) {
		return "", eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(sheets))
	}
	return sheets[opts.SheetIndex], nil
}
