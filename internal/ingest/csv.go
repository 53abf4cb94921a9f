package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// readDelimited reads comma- or tab-delimited text into rows. The delimiter
// is detected from the header line.
func readDelimited(content []byte) ([][]string, error) {
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF}) // UTF-8 BOM

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = detectDelimiter(content)
	reader.TrimLeadingSpace = true
	// Ragged rows are handled during row parsing, not by the reader
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse delimited text: %w", err)
	}
	return rows, nil
}

func detectDelimiter(content []byte) rune {
	line := string(content)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	if strings.Count(line, "\t") > strings.Count(line, ",") {
		return '\t'
	}
	return ','
}
