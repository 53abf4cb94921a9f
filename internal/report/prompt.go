package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/praevita/praevita/internal/common"
	"github.com/praevita/praevita/internal/model"
	"github.com/praevita/praevita/internal/service"
)

// Payload is the complete input contract for the narrative synthesizer: the
// fixed editorial policy plus the structured data block. The aggregator
// stops here; prose is the synthesizer's job.
type Payload struct {
	SystemPrompt string
	UserPrompt   string
	Period       string
	Rows         []model.ReportRow
}

// systemPrompt is the fixed editorial policy for the executive summary:
// tier thresholds, required section lengths, and the output shape.
const systemPrompt = `You are a public health analyst preparing an executive summary for a regional Ministry of Health.

You will receive projected cholera and typhoid case data for one or more districts. Write a structured risk report following these editorial rules exactly:

Risk tiers are assigned from the projected percent change in cases:
- greater than 50% change: "Severe"
- 20% to 50% change: "Medium"
- below 20% change: "Low"

Required sections:
- regional_data: one entry per district provided, echoing the projected cases, percent change, and risk level given, plus a key_factors_summary of 1-2 sentences naming the primary risk drivers for that district from its environmental data.
- description: an executive summary of 3-4 sentences for the entire report, highlighting key trends and the highest-risk areas.
- call_to_action: a prioritized list of 2-3 recommended actions for the regional health directorate.

Respond with ONLY a valid JSON object matching the requested structure. Do not include markdown formatting or commentary outside the JSON.`

// singleSystemPrompt adapts the editorial policy for one observation. The
// single endpoint keeps its original four-band tier vocabulary.
const singleSystemPrompt = `You are a public health analyst preparing a district risk assessment.

You will receive current and projected cholera and typhoid case counts for one district-month observation. Write a structured forecast following these editorial rules exactly:

Risk tiers are assigned from the projected percent change in cases:
- greater than 100% change: "Severe"
- greater than 50% up to 100%: "High"
- 20% to 50% change: "Medium"
- below 20% change: "Low"

Required sections:
- regional_data: exactly one entry for the district provided, echoing the projected cases, percent change, and risk level given, plus a key_factors_summary of 1-2 sentences naming the primary risk drivers from its environmental data.
- description: a summary of 3-4 sentences for this district's outlook.
- call_to_action: a prioritized list of 2-3 recommended actions for the district health office.

Respond with ONLY a valid JSON object matching the requested structure. Do not include markdown formatting or commentary outside the JSON.`

// BuildSinglePrompt assembles the synthesizer payload for one
// already-predicted observation supplied directly by the caller.
func BuildSinglePrompt(row model.FeatureRow, projectedCholera, projectedTyphoid int) Payload {
	row.ProjectedCholera = &projectedCholera
	row.ProjectedTyphoid = &projectedTyphoid

	reportRow := model.ReportRow{
		Row:                  row,
		PercentChangeCholera: PercentChange(row.CholeraCases, projectedCholera),
		PercentChangeTyphoid: PercentChange(row.TyphoidCases, projectedTyphoid),
	}

	period := monthLabel(row.Year, row.Month)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Reporting period: %s\n\n", period)
	writeRowBlock(&sb, reportRow, SingleRiskTier)

	return Payload{
		SystemPrompt: singleSystemPrompt,
		UserPrompt:   sb.String(),
		Period:       period,
		Rows:         []model.ReportRow{reportRow},
	}
}

// BuildComprehensivePrompt reads every predicted record from the store and
// assembles the multi-district payload. Fails with common.ErrNoData when
// nothing has been predicted yet.
func BuildComprehensivePrompt(ctx context.Context, store service.Storage) (Payload, error) {
	records, err := store.GetPredictedRecords(ctx)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to read predicted records: %w", err)
	}
	if len(records) == 0 {
		return Payload{}, common.ErrNoData
	}

	dateRange, err := store.GetPredictedDateRange(ctx)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to resolve date range: %w", err)
	}
	period := PeriodLabel(dateRange)

	rows := BuildReportRows(records)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Reporting period: %s\n", period)
	fmt.Fprintf(&sb, "Districts covered: %d\n\n", len(rows))
	for i, row := range rows {
		fmt.Fprintf(&sb, "--- District %d ---\n", i+1)
		writeRowBlock(&sb, row, RiskTier)
	}

	return Payload{
		SystemPrompt: systemPrompt,
		UserPrompt:   sb.String(),
		Period:       period,
		Rows:         rows,
	}, nil
}

// writeRowBlock renders one observation's data block: location, period,
// current and projected counts, derived change and tier candidate, and the
// six environmental covariates.
func writeRowBlock(sb *strings.Builder, row model.ReportRow, tier func(float64) string) {
	r := row.Row
	fmt.Fprintf(sb, "Location: %s, %s\n", r.District, r.Region)
	fmt.Fprintf(sb, "Period: %s\n", monthLabel(r.Year, r.Month))
	fmt.Fprintf(sb, "Cholera: current=%d projected=%d change=%.1f%% risk=%s\n",
		r.CholeraCases, *r.ProjectedCholera, row.PercentChangeCholera, tier(row.PercentChangeCholera))
	fmt.Fprintf(sb, "Typhoid: current=%d projected=%d change=%.1f%% risk=%s\n",
		r.TyphoidCases, *r.ProjectedTyphoid, row.PercentChangeTyphoid, tier(row.PercentChangeTyphoid))
	fmt.Fprintf(sb, "Environment: rainfall_mm=%.1f temperature_c=%.1f sanitation_index=%.2f water_quality_index=%.2f population_density=%.1f waste_mgmt_score=%.2f\n\n",
		r.RainfallMM, r.TemperatureC, r.SanitationIndex, r.WaterQualityIndex, r.PopulationDensity, r.WasteMgmtScore)
}
