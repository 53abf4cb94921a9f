// Package ingest parses uploaded tabular files into validated record inputs.
// A file either yields every row it contains or an error describing exactly
// what was wrong; rows are never silently coerced or skipped.
package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/praevita/praevita/internal/model"
)

// Format identifies the declared layout of an uploaded file.
type Format string

// Supported upload formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Required column headers, by exact name as they appear in the source data.
const (
	colRegion            = "Region"
	colCity              = "City"
	colYear              = "Year"
	colMonth             = "Month"
	colRainfall          = "Rainfall_mm"
	colTemperature       = "Temperature_celsius"
	colSanitationIndex   = "Sanitation_Index"
	colWaterQualityIndex = "Water_Quality_Index"
	colPopulationDensity = "Population_Density"
	colWasteMgmtScore    = "Waste_Management_Score"
	colCholeraCases      = "Cholera_Cases"
	colTyphoidCases      = "Typhoid_Cases"
)

var requiredColumns = []string{
	colRegion, colCity, colYear, colMonth,
	colRainfall, colTemperature, colSanitationIndex, colWaterQualityIndex,
	colPopulationDensity, colWasteMgmtScore, colCholeraCases, colTyphoidCases,
}

// FormatForFilename guesses the upload format from a filename extension.
func FormatForFilename(name string) Format {
	if strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Parse converts raw file content into ordered record inputs. The header
// must contain every required column; every data row must validate.
func Parse(content []byte, format Format) ([]model.RecordInput, error) {
	var table [][]string
	var err error

	switch format {
	case FormatCSV:
		table, err = readDelimited(content)
	case FormatXLSX:
		table, err = readWorkbook(content)
	default:
		return nil, fmt.Errorf("unsupported upload format: %q", format)
	}
	if err != nil {
		return nil, err
	}

	if len(table) == 0 {
		return nil, errors.New("file contains no rows")
	}

	index, err := resolveColumns(table[0])
	if err != nil {
		return nil, err
	}

	inputs := make([]model.RecordInput, 0, len(table)-1)
	for i, row := range table[1:] {
		// Data rows are numbered from 1 for error messages
		input, rowErr := parseRow(row, index, i+1)
		if rowErr != nil {
			return nil, rowErr
		}
		inputs = append(inputs, *input)
	}

	if len(inputs) == 0 {
		return nil, errors.New("file contains a header but no data rows")
	}

	return inputs, nil
}

// resolveColumns maps required column names to their positions in the
// header. Header matching trims whitespace but is otherwise exact.
func resolveColumns(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	return index, nil
}

func parseRow(row []string, index map[string]int, rowNum int) (*model.RecordInput, error) {
	cell := func(column string) string {
		i := index[column]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	text := func(column string) (string, error) {
		v := cell(column)
		if v == "" {
			return "", &RowError{Row: rowNum, Column: column, Err: errors.New("empty value")}
		}
		return v, nil
	}

	intCell := func(column string) (int, error) {
		v := cell(column)
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, &RowError{Row: rowNum, Column: column, Err: fmt.Errorf("not an integer: %q", v)}
		}
		return n, nil
	}

	floatCell := func(column string) (float64, error) {
		v := cell(column)
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, &RowError{Row: rowNum, Column: column, Err: fmt.Errorf("not a number: %q", v)}
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, &RowError{Row: rowNum, Column: column, Err: fmt.Errorf("not finite: %q", v)}
		}
		return f, nil
	}

	var input model.RecordInput
	var err error

	if input.Region, err = text(colRegion); err != nil {
		return nil, err
	}
	if input.District, err = text(colCity); err != nil {
		return nil, err
	}
	if input.Year, err = intCell(colYear); err != nil {
		return nil, err
	}
	if input.Year < 1 {
		return nil, &RowError{Row: rowNum, Column: colYear, Err: fmt.Errorf("year %d out of range", input.Year)}
	}
	if input.Month, err = intCell(colMonth); err != nil {
		return nil, err
	}
	if input.Month < 1 || input.Month > 12 {
		return nil, &RowError{Row: rowNum, Column: colMonth, Err: fmt.Errorf("month %d out of range", input.Month)}
	}
	if input.RainfallMM, err = floatCell(colRainfall); err != nil {
		return nil, err
	}
	if input.TemperatureC, err = floatCell(colTemperature); err != nil {
		return nil, err
	}
	if input.SanitationIndex, err = floatCell(colSanitationIndex); err != nil {
		return nil, err
	}
	if input.WaterQualityIndex, err = floatCell(colWaterQualityIndex); err != nil {
		return nil, err
	}
	if input.PopulationDensity, err = floatCell(colPopulationDensity); err != nil {
		return nil, err
	}
	if input.WasteMgmtScore, err = floatCell(colWasteMgmtScore); err != nil {
		return nil, err
	}
	if input.CholeraCases, err = intCell(colCholeraCases); err != nil {
		return nil, err
	}
	if input.CholeraCases < 0 {
		return nil, &RowError{Row: rowNum, Column: colCholeraCases, Err: errors.New("negative case count")}
	}
	if input.TyphoidCases, err = intCell(colTyphoidCases); err != nil {
		return nil, err
	}
	if input.TyphoidCases < 0 {
		return nil, &RowError{Row: rowNum, Column: colTyphoidCases, Err: errors.New("negative case count")}
	}

	return &input, nil
}
