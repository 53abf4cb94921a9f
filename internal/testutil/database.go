// Package testutil provides shared test fixtures for the praevita project.
// It offers in-memory databases with proper test isolation and builders for
// realistic observation data.
package testutil

import (
	"context"
	"testing"

	"github.com/praevita/praevita/internal/model"
	"github.com/praevita/praevita/internal/service"
	"github.com/praevita/praevita/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database. It automatically
// handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Errorf("failed to close test database: %v", closeErr)
		}
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// SeedRecords inserts the given inputs and fails the test on error.
func (db *TestDB) SeedRecords(ctx context.Context, inputs []model.RecordInput) int {
	db.t.Helper()

	inserted, err := db.Storage.InsertRecords(ctx, inputs)
	if err != nil {
		db.t.Fatalf("failed to seed records: %v", err)
	}
	return inserted
}

// NewRecordInput returns a valid observation with sensible defaults
// that callers can override via the modify callback.
func NewRecordInput(region, district string, year, month int, modify func(*model.RecordInput)) model.RecordInput {
	input := model.RecordInput{
		Region:            region,
		District:          district,
		Year:              year,
		Month:             month,
		RainfallMM:        120.5,
		TemperatureC:      27.3,
		SanitationIndex:   0.62,
		WaterQualityIndex: 0.55,
		PopulationDensity: 3400,
		WasteMgmtScore:    0.48,
		CholeraCases:      40,
		TyphoidCases:      25,
	}
	if modify != nil {
		modify(&input)
	}
	return input
}
