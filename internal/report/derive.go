// Package report turns raw and predicted records into the structured payload
// consumed by the narrative synthesizer: per-row percent changes and risk
// tiers, the reporting date range, and the assembled prompt blocks. It never
// produces prose itself.
package report

import (
	"math"
	"strconv"
	"time"

	"github.com/praevita/praevita/internal/model"
)

// Comprehensive-mode risk tiers.
const (
	TierLow    = "Low"
	TierMedium = "Medium"
	TierSevere = "Severe"

	// TierHigh is used only by single-record mode, which keeps the
	// four-band vocabulary of the original single endpoint.
	TierHigh = "High"
)

// PercentChange computes the projected change as a percentage of current
// cases, rounded to one decimal. A zero baseline cannot be divided by, so it
// is defined as 100.0 when projected cases appear from none, and 0.0 when
// both are zero.
func PercentChange(current, projected int) float64 {
	if current == 0 {
		if projected > 0 {
			return 100.0
		}
		return 0.0
	}
	change := (float64(projected-current) / float64(current)) * 100
	return math.Round(change*10) / 10
}

// RiskTier maps a percent change to the three-band tier scheme used by the
// comprehensive report. Boundary values: 20.0 and 50.0 are both Medium.
func RiskTier(change float64) string {
	switch {
	case change > 50:
		return TierSevere
	case change >= 20:
		return TierMedium
	default:
		return TierLow
	}
}

// SingleRiskTier maps a percent change to the four-band scheme of the
// single-record report, which splits the above-50 band into High and Severe.
func SingleRiskTier(change float64) string {
	switch {
	case change > 100:
		return TierSevere
	case change > 50:
		return TierHigh
	case change >= 20:
		return TierMedium
	default:
		return TierLow
	}
}

// BuildReportRows derives the per-row percent changes for a set of
// predicted records.
func BuildReportRows(rows []model.FeatureRow) []model.ReportRow {
	out := make([]model.ReportRow, 0, len(rows))
	for _, row := range rows {
		if !row.Predicted() {
			continue
		}
		out = append(out, model.ReportRow{
			Row:                  row,
			PercentChangeCholera: PercentChange(row.CholeraCases, *row.ProjectedCholera),
			PercentChangeTyphoid: PercentChange(row.TyphoidCases, *row.ProjectedTyphoid),
		})
	}
	return out
}

// ResolveDateRange finds the earliest and latest (year, month) across a set
// of predicted rows. Returns nil for an empty set.
func ResolveDateRange(rows []model.FeatureRow) *model.DateRange {
	var dr *model.DateRange
	for _, row := range rows {
		if dr == nil {
			dr = &model.DateRange{
				StartYear:  row.Year,
				StartMonth: row.Month,
				EndYear:    row.Year,
				EndMonth:   row.Month,
			}
			continue
		}
		if row.Year < dr.StartYear || (row.Year == dr.StartYear && row.Month < dr.StartMonth) {
			dr.StartYear, dr.StartMonth = row.Year, row.Month
		}
		if row.Year > dr.EndYear || (row.Year == dr.EndYear && row.Month > dr.EndMonth) {
			dr.EndYear, dr.EndMonth = row.Year, row.Month
		}
	}
	return dr
}

// PeriodLabel renders a date range as a human reporting period: a single
// "November 2025" when the range covers one month, otherwise an inclusive
// "March 2024 to January 2025".
func PeriodLabel(dr *model.DateRange) string {
	if dr == nil {
		return ""
	}
	start := monthLabel(dr.StartYear, dr.StartMonth)
	if dr.StartYear == dr.EndYear && dr.StartMonth == dr.EndMonth {
		return start
	}
	return start + " to " + monthLabel(dr.EndYear, dr.EndMonth)
}

func monthLabel(year, month int) string {
	return time.Month(month).String() + " " + strconv.Itoa(year)
}
