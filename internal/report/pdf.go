// Package report renders placement results as a PDF sheet and batch runs
// as an XLSX workbook.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rotisserie/eris"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/redbay-eng/drainfield-placer/internal/geometry"
	"github.com/redbay-eng/drainfield-placer/internal/requirements"
	"github.com/redbay-eng/drainfield-placer/internal/selection"
)

// Letter portrait in millimetres.
const (
	pageWidth  = 215.9
	pageHeight = 279.4
	margin     = 15.0
	lineHeight = 5.5
	labelWidth = 55.0
	qrSize     = 12.0
)

type rgb struct{ r, g, b int }

var fieldColors = []rgb{
	{76, 175, 80},
	{33, 150, 243},
}

// PlacementSheet is everything shown on one property's sheet.
type PlacementSheet struct {
	PropertyID string
	RunID      string
	Boundaries []geometry.Polygon
	Result     selection.Result
	Sizing     *requirements.Sizing
	Generated  time.Time
}

// WritePDF renders sheet as a single page PDF.
func WritePDF(w io.Writer, sheet PlacementSheet) error {
	if len(sheet.Boundaries) == 0 {
		return eris.New("report: no boundary to draw")
	}
	if sheet.Generated.IsZero() {
		sheet.Generated = time.Now()
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetTitle("Drainfield placement "+sheet.PropertyID, true)
	pdf.AddPage()

	y := renderHeader(pdf, sheet)
	if err := renderQR(pdf, sheet); err != nil {
		return err
	}
	y = renderSummary(pdf, selection.Summarize(sheet.Result), y)
	if sheet.Sizing != nil {
		y = renderSizing(pdf, *sheet.Sizing, y)
	}
	renderDrawing(pdf, sheet, y+4)

	if err := pdf.Output(w); err != nil {
		return eris.Wrap(err, "report: write pdf")
	}
	return nil
}

// WritePDFFile writes the sheet to path.
func WritePDFFile(path string, sheet PlacementSheet) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	if err := WritePDF(f, sheet); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "report: close %s", path)
}

func renderHeader(pdf *fpdf.Fpdf, sheet PlacementSheet) float64 {
	pdf.SetFont("Helvetica", "B", 15)
	pdf.SetXY(margin, margin)
	title := "Drainfield Placement"
	if sheet.PropertyID != "" {
		title += " - Property " + sheet.PropertyID
	}
	pdf.CellFormat(pageWidth-2*margin, 8, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(90, 90, 90)
	pdf.SetXY(margin, margin+8)
	pdf.CellFormat(pageWidth-2*margin, 4, "Generated "+sheet.Generated.Format("2006-01-02 15:04 MST"), "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.4)
	pdf.Line(margin, margin+13, pageWidth-margin, margin+13)
	return margin + 16
}

// sheetTag is what the header QR code encodes, so a printed sheet can be
// traced back to its run.
type sheetTag struct {
	PropertyID string `json:"property_id,omitempty"`
	RunID      string `json:"run_id,omitempty"`
	Status     string `json:"status"`
	ConfigType string `json:"config_type,omitempty"`
}

// renderQR draws the sheet tag in the top right corner. Sheets with neither
// a property nor a run id get no code.
func renderQR(pdf *fpdf.Fpdf, sheet PlacementSheet) error {
	if sheet.PropertyID == "" && sheet.RunID == "" {
		return nil
	}
	s := selection.Summarize(sheet.Result)
	data, err := json.Marshal(sheetTag{
		PropertyID: sheet.PropertyID,
		RunID:      sheet.RunID,
		Status:     s.Status,
		ConfigType: s.ConfigType,
	})
	if err != nil {
		return eris.Wrap(err, "report: encode sheet tag")
	}
	png, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return eris.Wrap(err, "report: generate qr code")
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("sheet_tag", opts, bytes.NewReader(png))
	pdf.ImageOptions("sheet_tag", pageWidth-margin-qrSize, margin-1, qrSize, qrSize, false, opts, 0, "")
	return nil
}

func renderRow(pdf *fpdf.Fpdf, y float64, label, value string) float64 {
	pdf.SetXY(margin, y)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(labelWidth, lineHeight, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(pageWidth-2*margin-labelWidth, lineHeight, value, "", 0, "L", false, 0, "")
	return y + lineHeight
}

func renderSummary(pdf *fpdf.Fpdf, s selection.Summary, y float64) float64 {
	y = renderRow(pdf, y, "Status", s.Status)
	if s.Status == selection.StatusFailed {
		y = renderRow(pdf, y, "Reason", s.Reason)
		y = renderRow(pdf, y, "Message", s.Message)
		return renderRow(pdf, y, "Configurations tried", strings.Join(s.Attempted, ", "))
	}

	y = renderRow(pdf, y, "Configuration", s.ConfigType)
	if s.FlowGPD > 0 {
		y = renderRow(pdf, y, "Flow", fmt.Sprintf("%.0f GPD", s.FlowGPD))
	}
	if s.Field != nil {
		y = renderRow(pdf, y, "Required area", fmt.Sprintf("%.0f sq ft", s.RequiredSqft))
		return renderField(pdf, y, "Drainfield", *s.Field)
	}
	y = renderRow(pdf, y, "Required area (each)", fmt.Sprintf("%.0f sq ft", s.RequiredSqftEach))
	if s.Field1 != nil {
		y = renderField(pdf, y, "Drainfield 1", *s.Field1)
	}
	if s.Field2 != nil {
		y = renderField(pdf, y, "Drainfield 2", *s.Field2)
	}
	return y
}

func renderField(pdf *fpdf.Fpdf, y float64, name string, f selection.FieldSummary) float64 {
	y = renderRow(pdf, y, name, fmt.Sprintf("%s / %s", f.Product, f.Pattern))
	y = renderRow(pdf, y, "  Credit", fmt.Sprintf("%.1f sq ft, %d pieces", f.CreditSqft, f.NumPieces))
	return renderRow(pdf, y, "  Rotation / offset", fmt.Sprintf("%.1f deg, (%.2f, %.2f) ft", f.Rotation, f.OffsetX, f.OffsetY))
}

func renderSizing(pdf *fpdf.Fpdf, s requirements.Sizing, y float64) float64 {
	y += 2
	y = renderRow(pdf, y, "Estimated flow", fmt.Sprintf("%d GPD", s.Flow.FlowGPD))
	y = renderRow(pdf, y, "Septic tank", fmt.Sprintf("%d gal", s.SepticTank))
	y = renderRow(pdf, y, "Pump tank", fmt.Sprintf("%d gal", s.PumpTank))
	if s.HasATU {
		y = renderRow(pdf, y, "ATU", fmt.Sprintf("%d gal", s.ATU))
	}
	return y
}

// renderDrawing plots boundaries and footprints, scaled to the space left
// on the page with north up.
func renderDrawing(pdf *fpdf.Fpdf, sheet PlacementSheet, top float64) {
	var shapes []geometry.Polygon
	shapes = append(shapes, sheet.Boundaries...)
	placements := sheet.Result.Placements()
	for _, p := range placements {
		shapes = append(shapes, p.Polygon)
	}
	minX, minY, maxX, maxY := extent(shapes)
	w, h := maxX-minX, maxY-minY
	if w <= 0 || h <= 0 {
		return
	}

	areaW := pageWidth - 2*margin
	areaH := pageHeight - margin - top - 10
	scale := math.Min(areaW/w, areaH/h)
	offX := margin + (areaW-w*scale)/2
	offY := top

	toPage := func(p geometry.Polygon) []fpdf.PointType {
		pts := p.Points()
		out := make([]fpdf.PointType, len(pts))
		for i, pt := range pts {
			out[i] = fpdf.PointType{X: offX + (pt.X-minX)*scale, Y: offY + (maxY-pt.Y)*scale}
		}
		return out
	}

	pdf.SetLineWidth(0.5)
	pdf.SetDrawColor(60, 60, 60)
	pdf.SetFillColor(235, 235, 225)
	for _, b := range sheet.Boundaries {
		if !b.IsEmpty() {
			pdf.Polygon(toPage(b), "FD")
		}
	}

	pdf.SetLineWidth(0.3)
	pdf.SetDrawColor(20, 20, 20)
	for i, p := range placements {
		if p.Polygon.IsEmpty() {
			continue
		}
		c := fieldColors[i%len(fieldColors)]
		pdf.SetFillColor(c.r, c.g, c.b)
		pdf.Polygon(toPage(p.Polygon), "FD")
	}

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)
	label := fmt.Sprintf("Scale 1 mm = %.2f ft   Extent %.1f x %.1f ft", 1/scale, w, h)
	pdf.SetXY(margin, offY+h*scale+2)
	pdf.CellFormat(areaW, 4, label, "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func extent(polys []geometry.Polygon) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range polys {
		if p.IsEmpty() {
			continue
		}
		lo, hi := p.Bounds()
		minX, minY = math.Min(minX, lo.X), math.Min(minY, lo.Y)
		maxX, maxY = math.Max(maxX, hi.X), math.Max(maxY, hi.Y)
	}
	return minX, minY, maxX, maxY
}
