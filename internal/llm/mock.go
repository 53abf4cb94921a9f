package llm

import (
	"context"
	"sync"

	"github.com/praevita/praevita/internal/model"
)

// MockClient is a test implementation of the Client interface. It can be
// programmed to fail a fixed number of times before succeeding, which the
// retry tests rely on.
type MockClient struct {
	// Report is returned on success. When nil a minimal valid report is built.
	Report *model.StructuredReport
	// Err is returned while FailCount has not been exhausted. An Err with
	// FailCount 0 fails every call.
	Err       error
	FailCount int
	calls     int
	mu        sync.Mutex
}

// Synthesize returns the programmed report or error.
func (m *MockClient) Synthesize(_ context.Context, _, _ string) (*model.StructuredReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++

	if m.Err != nil {
		if m.FailCount == 0 || m.calls <= m.FailCount {
			return nil, m.Err
		}
	}

	if m.Report != nil {
		return m.Report, nil
	}
	return &model.StructuredReport{
		Title:         "Regional Public Health Risk Report",
		Subtitle:      "Cholera and Typhoid Outbreak Projections",
		DateGenerated: "2025-01-01",
		RegionalData: []model.DistrictReport{{
			Location:          model.Location{Region: "Test Region", District: "Test District"},
			Cholera:           model.DiseaseForecast{RiskLevel: "Low", ProjectedCases: 1},
			Typhoid:           model.DiseaseForecast{RiskLevel: "Low", ProjectedCases: 1},
			KeyFactorsSummary: "Stable conditions.",
		}},
		Description:  "Conditions are stable across the reporting period.",
		CallToAction: "Continue routine surveillance.",
	}, nil
}

// Calls returns the number of synthesis requests received.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
