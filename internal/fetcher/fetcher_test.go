package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func collectRows(t *testing.T, rowCh <-chan []string, errCh <-chan error) ([][]string, error) {
	t.Helper()
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

func TestStreamCSV_Basic(t *testing.T) {
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader("a,b,c\n1,2,3\n"), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"1", "2", "3"}}, rows)
}

func TestStreamCSV_HeaderAndTrim(t *testing.T) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader("flow_gpd| name\n 300 |Trench\n"), CSVOptions{
		Delimiter: '|',
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"300", "Trench"}}, rows)
	assert.Equal(t, []string{"flow_gpd", "name"}, <-headerCh)
}

func TestStreamCSV_Comment(t *testing.T) {
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader("# note\nx,y\n"), CSVOptions{Comment: '#'})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"x", "y"}}, rows)
}

func TestStreamCSV_Cancelled(t *testing.T) {
	var sb strings.Builder
	for range 10000 {
		sb.WriteString("a,b,c\n")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader(sb.String()), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	assert.Error(t, err)
}

func writeXLSX(t *testing.T, sheets map[string][][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}
	path := filepath.Join(t.TempDir(), "table.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := writeXLSX(t, map[string][][]any{
		"flows": {{"bedrooms", "flow_gpd"}, {2, 200}, {3, 300}},
	})

	rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"bedrooms", "flow_gpd"}, {"2", "200"}, {"3", "300"}}, rows)

	rows, err = ReadXLSX(path, XLSXOptions{SheetName: "flows", SkipRows: 1})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "missing"})
	assert.Error(t, err)
	_, err = ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	assert.Error(t, err)
	_, err = ReadXLSX(filepath.Join(t.TempDir(), "none.xlsx"), XLSXOptions{})
	assert.Error(t, err)
}

func TestReadTable(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "flows.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Bedrooms, Flow_GPD\n2,200\n3, 300\n"), 0o644))

	tbl, err := ReadTable(context.Background(), csvPath)
	require.NoError(t, err)
	require.NoError(t, tbl.Require("bedrooms", "flow_gpd"))
	assert.Error(t, tbl.Require("tank"))
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "300", tbl.Value(tbl.Rows[1], "FLOW_GPD"))
	assert.Equal(t, "", tbl.Value(tbl.Rows[1], "nope"))

	xlsxPath := writeXLSX(t, map[string][][]any{"Sheet1": {{"bedrooms", "flow_gpd"}, {4, 400}}})
	tbl, err = ReadTable(context.Background(), xlsxPath)
	require.NoError(t, err)
	assert.Equal(t, "400", tbl.Value(tbl.Rows[0], "flow_gpd"))

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = ReadTable(context.Background(), empty)
	assert.Error(t, err)

	_, err = ReadTable(context.Background(), filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}
