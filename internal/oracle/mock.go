package oracle

import (
	"context"
	"sync"

	"github.com/praevita/praevita/internal/model"
)

// MockScorer is a test implementation of the Scorer interface. It records
// every call and can be programmed to fail on specific districts.
type MockScorer struct {
	// ScoreFunc overrides the default deterministic scoring when set.
	ScoreFunc func(features model.Features) (int, int, error)
	failOn    map[string]error
	calls     []model.Features
	mu        sync.Mutex
}

// NewMockScorer creates a new mock scorer.
func NewMockScorer() *MockScorer {
	return &MockScorer{failOn: make(map[string]error)}
}

// FailOn makes the scorer return err for any row in the named district.
func (m *MockScorer) FailOn(district string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[district] = err
}

// Score returns a deterministic projection derived from the current case
// counts unless a failure or override was configured.
func (m *MockScorer) Score(_ context.Context, features model.Features) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, features)

	if err, ok := m.failOn[features.District]; ok {
		return 0, 0, err
	}
	if m.ScoreFunc != nil {
		return m.ScoreFunc(features)
	}

	return features.CholeraCases + 10, features.TyphoidCases + 5, nil
}

// Calls returns a copy of every recorded score request.
func (m *MockScorer) Calls() []model.Features {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Features, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of score requests received.
func (m *MockScorer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
