// Package export writes a trial's results to the two output formats the
// pipeline hands off to other tools: an Excel table of boxes that could not
// be loaded, and a one-page PDF summary report carrying a QR code that
// encodes the report's identity for downstream scanning.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/piwi3910/containerload/internal/model"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/xuri/excelize/v2"
)

// unloadedSheet is the name of the single sheet written by WriteUnloadedTable.
const unloadedSheet = "Sheet1"

// WriteUnloadedTable writes the boxes that did not fit into an Excel
// workbook, one row per box, matching the input table's dimension columns
// so the sheet can be re-submitted as a follow-up load.
func WriteUnloadedTable(path string, notLoaded map[model.BoxKey]model.OrientedBox) error {
	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"Partida", "LargoCm", "AnchoCm", "AltoCm", "Prioridad", "Remontable"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(unloadedSheet, cell, h)
	}

	keys := make([]model.BoxKey, 0, len(notLoaded))
	for k := range notLoaded {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Partida < keys[j].Partida })

	for i, key := range keys {
		box := notLoaded[key]
		row := i + 2
		values := []interface{}{key.Partida, box.L, box.W, box.H, box.Priority, remontableLabel(box.Stackable)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(unloadedSheet, cell, v)
		}
	}

	return f.SaveAs(path)
}

func remontableLabel(stackable bool) string {
	if stackable {
		return "SI"
	}
	return "NO"
}

// SummaryStats is the scoring data a report surfaces for one trial.
type SummaryStats struct {
	Viaje          string
	ObjectiveLabel string
	PctgVolume     float64
	PctgFloor      float64
	XAxis          int
	BoxesLoaded    int
	BoxesRejected  int
}

// reportPayload is what the QR code encodes: enough to look the report up
// again without re-parsing the PDF.
type reportPayload struct {
	ReportID       string  `json:"report_id"`
	Viaje          string  `json:"viaje"`
	ObjectiveLabel string  `json:"objective"`
	PctgVolume     float64 `json:"pctg_volume"`
	PctgFloor      float64 `json:"pctg_floor"`
}

// WriteSummaryReport renders a one-page PDF with the trial's scores and a
// QR code identifying the report. It returns the generated report ID.
func WriteSummaryReport(path string, stats SummaryStats) (string, error) {
	reportID := uuid.NewString()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(15, 15)
	pdf.CellFormat(180, 10, fmt.Sprintf("Load summary: %s", stats.Viaje), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		fmt.Sprintf("Objective: %s", stats.ObjectiveLabel),
		fmt.Sprintf("Volume used: %.1f%%", stats.PctgVolume),
		fmt.Sprintf("Floor used: %.1f%%", stats.PctgFloor),
		fmt.Sprintf("X axis extent: %d cm", stats.XAxis),
		fmt.Sprintf("Boxes loaded: %d", stats.BoxesLoaded),
		fmt.Sprintf("Boxes rejected: %d", stats.BoxesRejected),
		fmt.Sprintf("Report ID: %s", reportID),
	}
	y := 30.0
	for _, line := range lines {
		pdf.SetXY(15, y)
		pdf.CellFormat(180, 6, line, "", 0, "L", false, 0, "")
		y += 7
	}

	payload, err := json.Marshal(reportPayload{
		ReportID:       reportID,
		Viaje:          stats.Viaje,
		ObjectiveLabel: stats.ObjectiveLabel,
		PctgVolume:     stats.PctgVolume,
		PctgFloor:      stats.PctgFloor,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal report payload: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%s", reportID)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
	pdf.ImageOptions(imgName, 150, 15, 40, 40, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", err
	}
	return reportID, nil
}
