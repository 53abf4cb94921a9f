package model

// ReportRow pairs a predicted observation with its derived percent changes.
type ReportRow struct {
	Row                  FeatureRow
	PercentChangeCholera float64
	PercentChangeTyphoid float64
}

// Location identifies a district within its region.
type Location struct {
	Region   string `json:"region"`
	District string `json:"district"`
}

// DiseaseForecast is the projected outlook for one disease in one district.
type DiseaseForecast struct {
	ProjectedCases int     `json:"projected_cases"`
	PercentChange  float64 `json:"projected_change_percent"`
	RiskLevel      string  `json:"risk_level"`
}

// DistrictReport is one district's entry in the synthesized report.
type DistrictReport struct {
	Location          Location        `json:"location"`
	Cholera           DiseaseForecast `json:"cholera"`
	Typhoid           DiseaseForecast `json:"typhoid"`
	KeyFactorsSummary string          `json:"key_factors_summary"`
}

// StructuredReport is the full synthesized risk report returned to callers.
type StructuredReport struct {
	Title           string           `json:"title"`
	Subtitle        string           `json:"subtitle"`
	DateGenerated   string           `json:"date_generated"`
	ReportingPeriod string           `json:"reporting_period"`
	RegionalData    []DistrictReport `json:"regional_data"`
	Description     string           `json:"description"`
	CallToAction    string           `json:"call_to_action"`
}
