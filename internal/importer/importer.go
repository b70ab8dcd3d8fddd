// Package importer reads a box table from CSV or Excel into model.Box
// values. It auto-detects the CSV delimiter and matches header aliases
// case-insensitively, falling back to positional columns when no
// recognizable header is present.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piwi3910/containerload/internal/model"
	"github.com/xuri/excelize/v2"
)

// Result holds the outcome of loading a box table: the boxes that parsed
// cleanly, plus any row-level errors or warnings worth surfacing.
type Result struct {
	Boxes    []model.Box
	Errors   []string
	Warnings []string
}

// ColumnMapping maps each box field to its column index in the source
// table, or -1 if not found.
type ColumnMapping struct {
	Partida              int
	Expedicion           int
	LargoCm              int
	AnchoCm              int
	AltoCm               int
	Remontable           int
	PesoKg               int
	Volumen              int
	CodigoViaje          int
	FechaCargaContenedor int
	FechaEntradaAlmacen  int
	TipoPartida          int
}

var headerAliases = map[string][]string{
	"partida":              {"partida", "id", "box id", "referencia"},
	"expedicion":           {"expedicion", "expedición", "shipment", "grupo"},
	"largocm":              {"largocm", "largo", "length", "l"},
	"anchocm":              {"anchocm", "ancho", "width", "w"},
	"altocm":               {"altocm", "alto", "height", "h"},
	"remontable":           {"remontable", "stackable", "apilable"},
	"pesokg":               {"pesokg", "peso", "weight", "weightkg"},
	"volumen":              {"volumen", "volume"},
	"codigoviaje":          {"codigoviaje", "viaje", "trip", "tripcode"},
	"fechacargacontenedor": {"fechacargacontenedor", "fecha carga", "load date"},
	"fechaentradaalmacen":  {"fechaentradaalmacen", "fecha entrada", "warehouse date"},
	"tipopartida":          {"tipopartida", "tipo", "type"},
}

// DetectCSVDelimiter tries comma, semicolon, tab, and pipe, and returns
// whichever produces the most consistent column count across rows.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	best := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			best = delim
		}
	}

	return best
}

// DetectColumns matches a header row against the known aliases. It returns
// the mapping and true if any header was recognized, or the fixed
// positional mapping and false otherwise.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{
		Partida: -1, Expedicion: -1, LargoCm: -1, AnchoCm: -1, AltoCm: -1,
		Remontable: -1, PesoKg: -1, Volumen: -1, CodigoViaje: -1,
		FechaCargaContenedor: -1, FechaEntradaAlmacen: -1, TipoPartida: -1,
	}

	found := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				found = true
				assignColumn(&mapping, role, i)
			}
		}
	}

	if !found {
		return ColumnMapping{
			Partida: 0, Expedicion: 1, LargoCm: 2, AnchoCm: 3, AltoCm: 4,
			Remontable: 5, PesoKg: 6, Volumen: 7, CodigoViaje: 8,
			FechaCargaContenedor: 9, FechaEntradaAlmacen: 10, TipoPartida: 11,
		}, false
	}

	return mapping, true
}

func assignColumn(m *ColumnMapping, role string, idx int) {
	set := func(field *int) {
		if *field == -1 {
			*field = idx
		}
	}
	switch role {
	case "partida":
		set(&m.Partida)
	case "expedicion":
		set(&m.Expedicion)
	case "largocm":
		set(&m.LargoCm)
	case "anchocm":
		set(&m.AnchoCm)
	case "altocm":
		set(&m.AltoCm)
	case "remontable":
		set(&m.Remontable)
	case "pesokg":
		set(&m.PesoKg)
	case "volumen":
		set(&m.Volumen)
	case "codigoviaje":
		set(&m.CodigoViaje)
	case "fechacargacontenedor":
		set(&m.FechaCargaContenedor)
	case "fechaentradaalmacen":
		set(&m.FechaEntradaAlmacen)
	case "tipopartida":
		set(&m.TipoPartida)
	}
}

func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseDim(s string) (int, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func parseRemontable(s string) (bool, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SI", "S", "1", "TRUE", "YES":
		return true, true
	case "NO", "N", "0", "FALSE", "":
		return false, true
	default:
		return false, false
	}
}

func parseRow(row []string, m ColumnMapping, rowLabel string) (model.Box, string, string) {
	partida := getCell(row, m.Partida)
	if partida == "" {
		return model.Box{}, fmt.Sprintf("%s: missing Partida", rowLabel), ""
	}

	largo, err := parseDim(getCell(row, m.LargoCm))
	if err != nil {
		return model.Box{}, fmt.Sprintf("%s: invalid LargoCm %q", rowLabel, getCell(row, m.LargoCm)), ""
	}
	ancho, err := parseDim(getCell(row, m.AnchoCm))
	if err != nil {
		return model.Box{}, fmt.Sprintf("%s: invalid AnchoCm %q", rowLabel, getCell(row, m.AnchoCm)), ""
	}
	alto, err := parseDim(getCell(row, m.AltoCm))
	if err != nil {
		return model.Box{}, fmt.Sprintf("%s: invalid AltoCm %q", rowLabel, getCell(row, m.AltoCm)), ""
	}

	var warning string
	stackable, ok := parseRemontable(getCell(row, m.Remontable))
	if !ok {
		warning = fmt.Sprintf("%s: unrecognized Remontable %q, defaulting to NO", rowLabel, getCell(row, m.Remontable))
	}

	weight := 0
	if w := getCell(row, m.PesoKg); w != "" {
		if parsed, err := parseDim(w); err == nil {
			weight = parsed
		}
	}
	volume := 0.0
	if v := getCell(row, m.Volumen); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			volume = parsed
		}
	}

	box := model.Box{
		Key:                  model.BoxKey{Partida: partida, Expedicion: getCell(row, m.Expedicion)},
		L:                    largo,
		W:                    ancho,
		H:                    alto,
		WeightKg:             weight,
		Stackable:            stackable,
		Volumen:              volume,
		CodigoViaje:          getCell(row, m.CodigoViaje),
		FechaCargaContenedor: getCell(row, m.FechaCargaContenedor),
		FechaEntradaAlmacen:  getCell(row, m.FechaEntradaAlmacen),
		TipoPartida:          getCell(row, m.TipoPartida),
	}

	return box, "", warning
}

// LoadBoxTable reads path as CSV or Excel, chosen by file extension, and
// parses it into a Result.
func LoadBoxTable(path string) Result {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return importCSV(path)
	}
	return importExcel(path)
}

func importCSV(path string) Result {
	result := Result{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cannot open file: %v", err))
		return result
	}
	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "file is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		names := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}
		result.Warnings = append(result.Warnings, fmt.Sprintf("detected %s delimiter", names[delimiter]))
	}

	return importFromReader(bytes.NewReader(data), delimiter, "Line", result.Warnings)
}

// ImportCSVFromReader parses CSV rows from an already-open reader using an
// explicit delimiter, bypassing file I/O and delimiter detection.
func ImportCSVFromReader(r io.Reader, delimiter rune) Result {
	return importFromReader(r, delimiter, "Line", nil)
}

func importFromReader(r io.Reader, delimiter rune, rowPrefix string, warnings []string) Result {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("cannot read CSV: %v", err)}}
	}
	return importFromRows(records, rowPrefix, warnings)
}

func importExcel(path string) Result {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("cannot open Excel file: %v", err)}}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{Errors: []string{"Excel file has no sheets"}}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("cannot read Excel data: %v", err)}}
	}

	return importFromRows(rows, "Row", nil)
}

func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) Result {
	result := Result{Warnings: initialWarnings}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "no data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "detected header row, skipping")

		var missing []string
		if mapping.Partida == -1 {
			missing = append(missing, "Partida")
		}
		if mapping.LargoCm == -1 {
			missing = append(missing, "LargoCm")
		}
		if mapping.AnchoCm == -1 {
			missing = append(missing, "AnchoCm")
		}
		if mapping.AltoCm == -1 {
			missing = append(missing, "AltoCm")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		box, errMsg, warning := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		result.Boxes = append(result.Boxes, box)
	}

	return result
}
