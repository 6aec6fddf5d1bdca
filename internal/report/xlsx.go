package report

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/redbay-eng/drainfield-placer/internal/selection"
)

// Sheet names in the batch workbook.
const (
	SummarySheet = "Placements"
	TotalsSheet  = "Totals"
)

// BatchRow is one property's outcome in a batch run.
type BatchRow struct {
	PropertyID string
	RunID      string
	Summary    selection.Summary
	// Err is set when the property could not be processed at all.
	Err string
}

var batchHeader = []any{
	"Property", "Status", "Configuration", "Flow (GPD)", "Required (sq ft)",
	"Product", "Pattern", "Rotation", "Offset X", "Offset Y",
	"Product 2", "Pattern 2", "Rotation 2",
	"Reason", "Message", "Attempted", "Run ID",
}

func batchValues(r BatchRow) []any {
	s := r.Summary
	status := s.Status
	if r.Err != "" {
		status = "ERROR"
	}
	required := s.RequiredSqft
	if s.Field == nil && s.Field1 != nil {
		required = s.RequiredSqftEach
	}
	row := []any{r.PropertyID, status, s.ConfigType, s.FlowGPD, required}

	first, second := s.Field, (*selection.FieldSummary)(nil)
	if first == nil {
		first, second = s.Field1, s.Field2
	}
	if first != nil {
		row = append(row, first.Product, first.Pattern, first.Rotation, first.OffsetX, first.OffsetY)
	} else {
		row = append(row, "", "", "", "", "")
	}
	if second != nil {
		row = append(row, second.Product, second.Pattern, second.Rotation)
	} else {
		row = append(row, "", "", "")
	}

	msg := s.Message
	if r.Err != "" {
		msg = r.Err
	}
	return append(row, s.Reason, msg, strings.Join(s.Attempted, ", "), r.RunID)
}

// WriteBatchXLSX writes one row per property plus a per-status totals sheet.
func WriteBatchXLSX(path string, rows []BatchRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return eris.Wrap(err, "report: rename sheet")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return eris.Wrap(err, "report: create style")
	}

	if err := writeRow(f, SummarySheet, 1, batchHeader); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(batchHeader), 1)
	if err := f.SetCellStyle(SummarySheet, "A1", last, bold); err != nil {
		return eris.Wrap(err, "report: style header")
	}

	totals := map[string]int{}
	var order []string
	for i, r := range rows {
		vals := batchValues(r)
		if err := writeRow(f, SummarySheet, i+2, vals); err != nil {
			return err
		}
		status := vals[1].(string)
		if _, seen := totals[status]; !seen {
			order = append(order, status)
		}
		totals[status]++
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 14); err != nil {
		return eris.Wrap(err, "report: column width")
	}
	if err := f.SetColWidth(SummarySheet, "N", "P", 40); err != nil {
		return eris.Wrap(err, "report: column width")
	}

	if _, err := f.NewSheet(TotalsSheet); err != nil {
		return eris.Wrap(err, "report: add totals sheet")
	}
	if err := writeRow(f, TotalsSheet, 1, []any{"Status", "Count"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(TotalsSheet, "A1", "B1", bold); err != nil {
		return eris.Wrap(err, "report: style totals")
	}
	for i, status := range order {
		if err := writeRow(f, TotalsSheet, i+2, []any{status, totals[status]}); err != nil {
			return err
		}
	}
	if err := writeRow(f, TotalsSheet, len(order)+2, []any{"Total", len(rows)}); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return eris.Wrap(err, "report: cell name")
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return eris.Wrapf(err, "report: write %s row %d", sheet, row)
	}
	return nil
}
