package ingest

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from an uploaded table. The
// whole file is rejected; nothing is parsed past the header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// RowError reports a row-level validation failure. One bad row rejects the
// whole batch so a partial upload is never inserted.
type RowError struct {
	Err    error
	Column string
	Row    int
}

func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column %s: %v", e.Row, e.Column, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
