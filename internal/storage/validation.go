package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/praevita/praevita/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrEmptySlice   = errors.New("slice cannot be empty")
	ErrInvalidInput = errors.New("invalid record input")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateInputs validates a slice of record inputs before insertion.
func validateInputs(inputs []model.RecordInput) error {
	if inputs == nil {
		return fmt.Errorf("%w: inputs", ErrNilParameter)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("%w: inputs", ErrEmptySlice)
	}

	for i, input := range inputs {
		if err := validateInput(&input); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
	}
	return nil
}

// validateInput validates a single record input.
func validateInput(input *model.RecordInput) error {
	if input == nil {
		return fmt.Errorf("%w: input", ErrNilParameter)
	}
	if input.Region == "" {
		return fmt.Errorf("%w: missing region", ErrInvalidInput)
	}
	if input.District == "" {
		return fmt.Errorf("%w: missing district", ErrInvalidInput)
	}
	if input.Year < 1 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidInput, input.Year)
	}
	if input.Month < 1 || input.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidInput, input.Month)
	}
	if input.CholeraCases < 0 || input.TyphoidCases < 0 {
		return fmt.Errorf("%w: negative case count", ErrInvalidInput)
	}
	for name, v := range map[string]float64{
		"rainfall_mm":         input.RainfallMM,
		"temperature_c":       input.TemperatureC,
		"sanitation_index":    input.SanitationIndex,
		"water_quality_index": input.WaterQualityIndex,
		"population_density":  input.PopulationDensity,
		"waste_mgmt_score":    input.WasteMgmtScore,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidInput, name)
		}
	}
	return nil
}
