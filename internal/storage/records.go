package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/praevita/praevita/internal/common"
	"github.com/praevita/praevita/internal/model"
)

const recordColumns = `id, region, district, year, month,
	rainfall_mm, temperature_c, sanitation_index, water_quality_index,
	population_density, waste_mgmt_score, cholera_cases, typhoid_cases,
	projected_cholera, projected_typhoid, created_at`

// InsertRecords inserts a validated batch of records in a single
// transaction. The batch is all-or-nothing: any failure rolls back every
// row. Returns the number of rows inserted.
func (s *SQLiteStorage) InsertRecords(ctx context.Context, inputs []model.RecordInput) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateInputs(inputs); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (
			id, region, district, year, month,
			rainfall_mm, temperature_c, sanitation_index, water_quality_index,
			population_density, waste_mgmt_score, cholera_cases, typhoid_cases,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for i, input := range inputs {
		_, err = stmt.ExecContext(ctx,
			uuid.NewString(),
			input.Region,
			input.District,
			input.Year,
			input.Month,
			input.RainfallMM,
			input.TemperatureC,
			input.SanitationIndex,
			input.WaterQualityIndex,
			input.PopulationDensity,
			input.WasteMgmtScore,
			input.CholeraCases,
			input.TyphoidCases,
			now,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert record at index %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit insert: %w", err)
	}

	return len(inputs), nil
}

// GetPendingRecords retrieves up to limit records that have not been scored
// yet. The order is stable across repeated scans of an unchanged store.
func (s *SQLiteStorage) GetPendingRecords(ctx context.Context, limit int) ([]model.FeatureRow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM records
		WHERE projected_cholera IS NULL AND projected_typhoid IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`, recordColumns), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// SetPrediction writes both projected case counts for a record in a single
// statement, so a row is never observable with only one projection set. A
// row that is already predicted is left unchanged.
func (s *SQLiteStorage) SetPrediction(ctx context.Context, id string, cholera, typhoid int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if cholera < 0 || typhoid < 0 {
		return fmt.Errorf("%w: negative projection", ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE records
		SET projected_cholera = ?, projected_typhoid = ?
		WHERE id = ? AND projected_cholera IS NULL AND projected_typhoid IS NULL
	`, cholera, typhoid, id)
	if err != nil {
		return fmt.Errorf("failed to update prediction for %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		// Either the row does not exist or it was already predicted by a
		// concurrent run; the first write wins
		record, lookupErr := s.GetRecordByID(ctx, id)
		if lookupErr != nil {
			return lookupErr
		}
		if record.Predicted() {
			return nil
		}
		return fmt.Errorf("record %s: %w", id, common.ErrNotFound)
	}

	return nil
}

// GetPredictedRecords retrieves every record that has been scored.
func (s *SQLiteStorage) GetPredictedRecords(ctx context.Context) ([]model.FeatureRow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM records
		WHERE projected_cholera IS NOT NULL AND projected_typhoid IS NOT NULL
		ORDER BY year ASC, month ASC, id ASC
	`, recordColumns))
	if err != nil {
		return nil, fmt.Errorf("failed to query predicted records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// GetPredictedDateRange finds the earliest and latest (year, month) among
// predicted records. Returns nil when no record has been predicted.
func (s *SQLiteStorage) GetPredictedDateRange(ctx context.Context) (*model.DateRange, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	earliest, err := s.predictedExtremum(ctx, "ASC")
	if err != nil {
		return nil, err
	}
	if earliest == nil {
		return nil, nil
	}

	latest, err := s.predictedExtremum(ctx, "DESC")
	if err != nil {
		return nil, err
	}

	return &model.DateRange{
		StartYear:  earliest.Year,
		StartMonth: earliest.Month,
		EndYear:    latest.Year,
		EndMonth:   latest.Month,
	}, nil
}

// predictedExtremum returns the predicted row at one end of the (year,
// month) total order, with id as a stable tie-break.
func (s *SQLiteStorage) predictedExtremum(ctx context.Context, direction string) (*model.FeatureRow, error) {
	if direction != "ASC" && direction != "DESC" {
		return nil, fmt.Errorf("%w: direction %q", ErrInvalidInput, direction)
	}

	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM records
		WHERE projected_cholera IS NOT NULL AND projected_typhoid IS NOT NULL
		ORDER BY year %s, month %s, id %s
		LIMIT 1
	`, recordColumns, direction, direction, direction))

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query predicted extremum: %w", err)
	}
	return record, nil
}

// GetAllRecords retrieves every stored record, pending and predicted, in
// store order.
func (s *SQLiteStorage) GetAllRecords(ctx context.Context) ([]model.FeatureRow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM records
		ORDER BY created_at ASC, id ASC
	`, recordColumns))
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// GetRecordByID retrieves a single record.
func (s *SQLiteStorage) GetRecordByID(ctx context.Context, id string) (*model.FeatureRow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM records WHERE id = ?
	`, recordColumns), id)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query record %s: %w", id, err)
	}
	return record, nil
}

// CountRecords returns the total number of stored records.
func (s *SQLiteStorage) CountRecords(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// CountPendingRecords returns the number of records awaiting prediction.
func (s *SQLiteStorage) CountPendingRecords(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM records
		WHERE projected_cholera IS NULL AND projected_typhoid IS NULL
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending records: %w", err)
	}
	return count, nil
}

// scanner abstracts *sql.Row and *sql.Rows for record scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*model.FeatureRow, error) {
	var r model.FeatureRow
	var projCholera, projTyphoid sql.NullInt64

	err := sc.Scan(
		&r.ID,
		&r.Region,
		&r.District,
		&r.Year,
		&r.Month,
		&r.RainfallMM,
		&r.TemperatureC,
		&r.SanitationIndex,
		&r.WaterQualityIndex,
		&r.PopulationDensity,
		&r.WasteMgmtScore,
		&r.CholeraCases,
		&r.TyphoidCases,
		&projCholera,
		&projTyphoid,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if projCholera.Valid {
		v := int(projCholera.Int64)
		r.ProjectedCholera = &v
	}
	if projTyphoid.Valid {
		v := int(projTyphoid.Int64)
		r.ProjectedTyphoid = &v
	}

	return &r, nil
}

func scanRecords(rows *sql.Rows) ([]model.FeatureRow, error) {
	var records []model.FeatureRow
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}
