// Package model defines the core domain types shared across the application.
package model

import "time"

// FeatureRow is one stored district-month observation. A row starts pending
// and becomes predicted when both projected counts are set; the two
// projections are always nil together or set together.
type FeatureRow struct {
	ID                string
	Region            string
	District          string
	Year              int
	Month             int
	RainfallMM        float64
	TemperatureC      float64
	SanitationIndex   float64
	WaterQualityIndex float64
	PopulationDensity float64
	WasteMgmtScore    float64
	CholeraCases      int
	TyphoidCases      int
	ProjectedCholera  *int
	ProjectedTyphoid  *int
	CreatedAt         time.Time
}

// Predicted reports whether the row has been scored.
func (r *FeatureRow) Predicted() bool {
	return r.ProjectedCholera != nil && r.ProjectedTyphoid != nil
}

// Features returns the observation in the wire shape the model server
// expects.
func (r *FeatureRow) Features() Features {
	return Features{
		Region:            r.Region,
		District:          r.District,
		Year:              r.Year,
		Month:             r.Month,
		RainfallMM:        r.RainfallMM,
		TemperatureC:      r.TemperatureC,
		SanitationIndex:   r.SanitationIndex,
		WaterQualityIndex: r.WaterQualityIndex,
		PopulationDensity: r.PopulationDensity,
		WasteMgmtScore:    r.WasteMgmtScore,
		CholeraCases:      r.CholeraCases,
		TyphoidCases:      r.TyphoidCases,
	}
}

// Features is one observation in the upload column vocabulary. The JSON tags
// match the original training data headers, which the model server also
// uses; "City" is what this codebase calls a district.
type Features struct {
	Region            string  `json:"Region"`
	District          string  `json:"City"`
	Year              int     `json:"Year"`
	Month             int     `json:"Month"`
	RainfallMM        float64 `json:"Rainfall_mm"`
	TemperatureC      float64 `json:"Temperature_celsius"`
	SanitationIndex   float64 `json:"Sanitation_Index"`
	WaterQualityIndex float64 `json:"Water_Quality_Index"`
	PopulationDensity float64 `json:"Population_Density"`
	WasteMgmtScore    float64 `json:"Waste_Management_Score"`
	CholeraCases      int     `json:"Cholera_Cases"`
	TyphoidCases      int     `json:"Typhoid_Cases"`
}

// RecordInput is a validated observation ready for insertion. The store
// assigns the ID and timestamp.
type RecordInput struct {
	Region            string
	District          string
	Year              int
	Month             int
	RainfallMM        float64
	TemperatureC      float64
	SanitationIndex   float64
	WaterQualityIndex float64
	PopulationDensity float64
	WasteMgmtScore    float64
	CholeraCases      int
	TyphoidCases      int
}

// DateRange is an inclusive span of observation months.
type DateRange struct {
	StartYear  int
	StartMonth int
	EndYear    int
	EndMonth   int
}
