package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// readWorkbook extracts the first worksheet of an OOXML spreadsheet as rows
// of strings. Only the parts needed for tabular extraction are read: the
// workbook sheet list, its relationships, the shared string table, and one
// worksheet.
func readWorkbook(content []byte) ([][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}

	sheetPath := firstSheetPath(
		zipPart(zr, "xl/workbook.xml"),
		zipPart(zr, "xl/_rels/workbook.xml.rels"),
	)
	sheetXML := zipPart(zr, sheetPath)
	if len(sheetXML) == 0 {
		return nil, errors.New("spreadsheet has no readable worksheet")
	}

	shared := sharedStrings(zipPart(zr, "xl/sharedStrings.xml"))

	var rows [][]string
	reader := newRowReader(sheetXML, shared)
	for {
		row, ok := reader.next()
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func zipPart(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer func() { _ = rc.Close() }()
		data, _ := io.ReadAll(rc)
		return data
	}
	return nil
}

// firstSheetPath resolves the first sheet declared in the workbook to its
// archive path, falling back to the conventional sheet1 location.
func firstSheetPath(workbookXML, relsXML []byte) string {
	const fallback = "xl/worksheets/sheet1.xml"

	rid := firstSheetRID(workbookXML)
	if rid == "" {
		return fallback
	}

	target := relationshipTarget(relsXML, rid)
	if target == "" {
		return fallback
	}
	target = strings.TrimPrefix(target, "/")
	if !strings.HasPrefix(target, "xl/") {
		target = "xl/" + target
	}
	return target
}

func firstSheetRID(data []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "sheet" {
			for _, a := range se.Attr {
				if a.Name.Local == "id" {
					return a.Value
				}
			}
		}
	}
}

func relationshipTarget(data []byte, rid string) string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id == rid {
			return target
		}
	}
}

func sharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inText bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "si":
				out = append(out, buf.String())
			}
		case xml.CharData:
			if inText {
				buf.Write(el)
			}
		}
	}
}

// rowReader streams <row> elements from a worksheet, resolving shared
// strings and sparse cell references into dense string slices.
type rowReader struct {
	dec    *xml.Decoder
	shared []string
	cells  []string
	width  int
	inRow  bool
}

func newRowReader(sheetXML []byte, shared []string) *rowReader {
	return &rowReader{dec: xml.NewDecoder(bytes.NewReader(sheetXML)), shared: shared}
}

func (r *rowReader) next() ([]string, bool) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case el.Name.Local == "row":
				r.inRow = true
				r.cells = nil
				r.width = 0
			case r.inRow && el.Name.Local == "c":
				var ref, kind string
				for _, a := range el.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						kind = a.Value
					}
				}
				col := columnIndex(ref)
				if col < 0 {
					col = len(r.cells)
				}
				if col+1 > r.width {
					r.width = col + 1
				}
				if len(r.cells) <= col {
					grown := make([]string, col+1)
					copy(grown, r.cells)
					r.cells = grown
				}
				r.cells[col] = r.cellValue(kind)
			}
		case xml.EndElement:
			if el.Name.Local == "row" {
				r.inRow = false
				if len(r.cells) < r.width {
					grown := make([]string, r.width)
					copy(grown, r.cells)
					r.cells = grown
				}
				return r.cells, true
			}
		}
	}
}

// cellValue reads the content of one <c> element: either an inline <v>/<t>
// or a shared string reference.
func (r *rowReader) cellValue(kind string) string {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "v" || el.Name.Local == "t" {
				var sb strings.Builder
				for {
					inner, innerErr := r.dec.Token()
					if innerErr != nil {
						break
					}
					if end, ok := inner.(xml.EndElement); ok && (end.Name.Local == "v" || end.Name.Local == "t") {
						break
					}
					if ch, ok := inner.(xml.CharData); ok {
						sb.Write(ch)
					}
				}
				val = sb.String()
			}
		case xml.EndElement:
			if el.Name.Local == "c" {
				if kind == "s" {
					idx, err := strconv.Atoi(val)
					if err != nil || idx < 0 || idx >= len(r.shared) {
						return ""
					}
					return r.shared[idx]
				}
				return val
			}
		}
	}
}

// columnIndex converts a cell reference like "C12" to its zero-based column
// index. Returns -1 when the reference has no column letters.
func columnIndex(ref string) int {
	end := 0
	for end < len(ref) {
		c := ref[end]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return -1
	}

	idx := 0
	for _, c := range strings.ToUpper(ref[:end]) {
		idx = idx*26 + int(c-'A'+1)
	}
	return idx - 1
}
