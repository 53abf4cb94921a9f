package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/praevita/praevita/internal/model"
)

// cleanMarkdownWrapper strips a ```json fence some providers wrap around
// their output despite instructions.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// parseReport decodes provider output into a StructuredReport and fills the
// defaulted header fields the provider may omit.
func parseReport(content string) (*model.StructuredReport, error) {
	content = cleanMarkdownWrapper(content)

	var report model.StructuredReport
	if err := json.Unmarshal([]byte(content), &report); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if len(report.RegionalData) == 0 {
		return nil, fmt.Errorf("response contains no regional data")
	}
	if report.Description == "" {
		return nil, fmt.Errorf("response is missing the executive description")
	}
	if report.CallToAction == "" {
		return nil, fmt.Errorf("response is missing the call to action")
	}

	if report.Title == "" {
		report.Title = "Regional Public Health Risk Report"
	}
	if report.Subtitle == "" {
		report.Subtitle = "Cholera and Typhoid Outbreak Projections"
	}
	if report.DateGenerated == "" {
		report.DateGenerated = time.Now().UTC().Format("2006-01-02")
	}

	return &report, nil
}

// reportShape is appended to each user prompt so providers return the exact
// structure parseReport expects.
const reportShape = `

Return a JSON object with this structure:
{
  "title": string,
  "subtitle": string,
  "date_generated": "YYYY-MM-DD",
  "reporting_period": string,
  "regional_data": [
    {
      "location": {"region": string, "district": string},
      "cholera": {"projected_cases": int, "projected_change_percent": float, "risk_level": string},
      "typhoid": {"projected_cases": int, "projected_change_percent": float, "risk_level": string},
      "key_factors_summary": string
    }
  ],
  "description": string,
  "call_to_action": string
}`
