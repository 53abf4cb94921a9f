// Package service defines the contracts between the application's components.
package service

import (
	"context"
	"time"

	"github.com/praevita/praevita/internal/model"
)

// Storage defines the contract for the record store. Each operation is a
// single transaction; no operation holds a lock across a network round-trip.
type Storage interface {
	// Ingestion
	InsertRecords(ctx context.Context, inputs []model.RecordInput) (int, error)

	// Reconciliation
	GetPendingRecords(ctx context.Context, limit int) ([]model.FeatureRow, error)
	SetPrediction(ctx context.Context, id string, cholera, typhoid int) error

	// Reporting
	GetPredictedRecords(ctx context.Context) ([]model.FeatureRow, error)
	GetPredictedDateRange(ctx context.Context) (*model.DateRange, error)

	// Listing
	GetAllRecords(ctx context.Context) ([]model.FeatureRow, error)
	GetRecordByID(ctx context.Context, id string) (*model.FeatureRow, error)
	CountRecords(ctx context.Context) (int, error)
	CountPendingRecords(ctx context.Context) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for external calls.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
