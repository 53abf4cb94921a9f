package storage

import (
	"context"
	"testing"

	"github.com/praevita/praevita/internal/common"
	"github.com/praevita/praevita/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err, "failed to create storage")

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx), "failed to migrate")

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testInput(region, district string, year, month int) model.RecordInput {
	return model.RecordInput{
		Region:            region,
		District:          district,
		Year:              year,
		Month:             month,
		RainfallMM:        150.0,
		TemperatureC:      28.5,
		SanitationIndex:   0.6,
		WaterQualityIndex: 0.5,
		PopulationDensity: 2500,
		WasteMgmtScore:    0.4,
		CholeraCases:      100,
		TyphoidCases:      50,
	}
}

func TestInsertRecords(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts a batch as pending", func(t *testing.T) {
		store := createTestStorage(t)

		inserted, err := store.InsertRecords(ctx, []model.RecordInput{
			testInput("Coastal", "Port Town", 2025, 3),
			testInput("Coastal", "Harbor City", 2025, 3),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, inserted)

		records, err := store.GetAllRecords(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		for _, r := range records {
			assert.NotEmpty(t, r.ID)
			assert.False(t, r.Predicted())
			assert.Nil(t, r.ProjectedCholera)
			assert.Nil(t, r.ProjectedTyphoid)
			assert.False(t, r.CreatedAt.IsZero())
		}

		pending, err := store.CountPendingRecords(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, pending)
	})

	t.Run("rejects the whole batch on one invalid row", func(t *testing.T) {
		store := createTestStorage(t)

		bad := testInput("Coastal", "Port Town", 2025, 13) // month out of range
		_, err := store.InsertRecords(ctx, []model.RecordInput{
			testInput("Coastal", "Harbor City", 2025, 3),
			bad,
		})
		require.Error(t, err)

		count, err := store.CountRecords(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count, "no rows should survive a failed batch")
	})

	t.Run("rejects empty batch", func(t *testing.T) {
		store := createTestStorage(t)

		_, err := store.InsertRecords(ctx, []model.RecordInput{})
		assert.Error(t, err)
	})
}

func TestSetPrediction(t *testing.T) {
	ctx := context.Background()

	t.Run("marks a pending row predicted", func(t *testing.T) {
		store := createTestStorage(t)

		_, err := store.InsertRecords(ctx, []model.RecordInput{testInput("Coastal", "Port Town", 2025, 3)})
		require.NoError(t, err)

		pending, err := store.GetPendingRecords(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)

		require.NoError(t, store.SetPrediction(ctx, pending[0].ID, 130, 55))

		record, err := store.GetRecordByID(ctx, pending[0].ID)
		require.NoError(t, err)
		require.True(t, record.Predicted())
		assert.Equal(t, 130, *record.ProjectedCholera)
		assert.Equal(t, 55, *record.ProjectedTyphoid)

		remaining, err := store.CountPendingRecords(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, remaining)
	})

	t.Run("a predicted row is not overwritten", func(t *testing.T) {
		store := createTestStorage(t)

		_, err := store.InsertRecords(ctx, []model.RecordInput{testInput("Coastal", "Port Town", 2025, 3)})
		require.NoError(t, err)

		pending, err := store.GetPendingRecords(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		id := pending[0].ID

		require.NoError(t, store.SetPrediction(ctx, id, 130, 55))

		// A late overlapping run writes different values; the first
		// write wins and the second is a silent no-op
		require.NoError(t, store.SetPrediction(ctx, id, 999, 999))

		record, err := store.GetRecordByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 130, *record.ProjectedCholera)
		assert.Equal(t, 55, *record.ProjectedTyphoid)
	})

	t.Run("unknown id returns not found", func(t *testing.T) {
		store := createTestStorage(t)

		err := store.SetPrediction(ctx, "no-such-id", 1, 1)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestGetPendingRecords(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	districts := []string{"Alpha", "Beta", "Gamma", "Delta"}
	for _, d := range districts {
		_, err := store.InsertRecords(ctx, []model.RecordInput{testInput("East", d, 2025, 1)})
		require.NoError(t, err)
	}

	t.Run("order is stable across scans", func(t *testing.T) {
		first, err := store.GetPendingRecords(ctx, 10)
		require.NoError(t, err)
		second, err := store.GetPendingRecords(ctx, 10)
		require.NoError(t, err)

		require.Len(t, first, 4)
		for i := range first {
			assert.Equal(t, first[i].ID, second[i].ID)
		}
	})

	t.Run("respects the limit", func(t *testing.T) {
		limited, err := store.GetPendingRecords(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})

	t.Run("predicted rows drop out", func(t *testing.T) {
		pending, err := store.GetPendingRecords(ctx, 10)
		require.NoError(t, err)
		require.NoError(t, store.SetPrediction(ctx, pending[0].ID, 10, 5))

		after, err := store.GetPendingRecords(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, after, len(pending)-1)
		for _, r := range after {
			assert.NotEqual(t, pending[0].ID, r.ID)
		}
	})
}

func TestGetPredictedRecords(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	// Insert out of chronological order
	_, err := store.InsertRecords(ctx, []model.RecordInput{
		testInput("East", "Alpha", 2025, 1),
		testInput("East", "Beta", 2024, 3),
		testInput("East", "Gamma", 2024, 11),
	})
	require.NoError(t, err)

	pending, err := store.GetPendingRecords(ctx, 10)
	require.NoError(t, err)
	for _, r := range pending {
		require.NoError(t, store.SetPrediction(ctx, r.ID, 10, 5))
	}

	predicted, err := store.GetPredictedRecords(ctx)
	require.NoError(t, err)
	require.Len(t, predicted, 3)

	// Chronological order
	assert.Equal(t, "Beta", predicted[0].District)
	assert.Equal(t, "Gamma", predicted[1].District)
	assert.Equal(t, "Alpha", predicted[2].District)
}

func TestGetPredictedDateRange(t *testing.T) {
	ctx := context.Background()

	t.Run("nil when nothing predicted", func(t *testing.T) {
		store := createTestStorage(t)

		_, err := store.InsertRecords(ctx, []model.RecordInput{testInput("East", "Alpha", 2025, 1)})
		require.NoError(t, err)

		dr, err := store.GetPredictedDateRange(ctx)
		require.NoError(t, err)
		assert.Nil(t, dr)
	})

	t.Run("spans predicted rows only", func(t *testing.T) {
		store := createTestStorage(t)

		_, err := store.InsertRecords(ctx, []model.RecordInput{
			testInput("East", "Alpha", 2024, 11),
			testInput("East", "Beta", 2024, 3),
			testInput("East", "Gamma", 2025, 1),
			testInput("East", "Delta", 2023, 6), // stays pending
		})
		require.NoError(t, err)

		pending, err := store.GetPendingRecords(ctx, 10)
		require.NoError(t, err)
		for _, r := range pending {
			if r.District == "Delta" {
				continue
			}
			require.NoError(t, store.SetPrediction(ctx, r.ID, 10, 5))
		}

		dr, err := store.GetPredictedDateRange(ctx)
		require.NoError(t, err)
		require.NotNil(t, dr)
		assert.Equal(t, 2024, dr.StartYear)
		assert.Equal(t, 3, dr.StartMonth)
		assert.Equal(t, 2025, dr.EndYear)
		assert.Equal(t, 1, dr.EndMonth)
	})
}
