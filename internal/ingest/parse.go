package ingest

// parse.go turns uploaded file bytes into ordered header-keyed rows.
//
// The first row is always the header. Header cells are trimmed and mapped
// to canonical field names via the entity schema; unmapped headers pass
// through under their trimmed source name and are ignored downstream.
// Cell values are trimmed but otherwise untouched: typed coercion is the
// validator's job.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Format is the upload file format hint.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SniffFormat guesses the upload format from the file name, defaulting
// to CSV.
func SniffFormat(fileName string) Format {
	name := strings.ToLower(fileName)
	if strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm") || strings.HasSuffix(name, ".xls") {
		return FormatXLSX
	}
	return FormatCSV
}

// ParseUpload parses file bytes into RawRows using the schema's header
// mapping. Returns ErrEmptyInput when the file has no data rows and a
// ConfigError when the bytes cannot be parsed as the hinted format.
func ParseUpload(data []byte, format Format, schema EntitySchema) ([]RawRow, error) {
	var records [][]string
	var err error

	switch format {
	case FormatXLSX:
		records, err = parseXLSX(data)
	default:
		records, err = parseCSV(sanitizeUTF8(data))
	}
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("parse %s: %v", format, err)}
	}

	if len(records) < 2 {
		return nil, ErrEmptyInput
	}

	headerMap := schema.HeaderMap()
	header := make([]string, len(records[0]))
	mapped := make(map[string]bool, len(records[0]))
	for i, h := range records[0] {
		h = CleanCell(h)
		if canonical, ok := headerMap[strings.ToLower(h)]; ok {
			h = canonical
			mapped[canonical] = true
		}
		header[i] = h
	}

	// A file missing a required column cannot produce a single valid row;
	// reject the job instead of failing every row the same way.
	for _, f := range schema.Fields {
		if f.Required && !mapped[f.Name] {
			return nil, &ConfigError{Reason: fmt.Sprintf("required column %q is missing", f.SourceHeader())}
		}
	}

	rows := make([]RawRow, 0, len(records)-1)
	for i, record := range records[1:] {
		cells := make(map[string]string, len(header))
		for j, name := range header {
			if name == "" || j >= len(record) {
				continue
			}
			cells[name] = strings.TrimSpace(record[j])
		}
		rows = append(rows, RawRow{Index: i + 1, Cells: cells})
	}

	return rows, nil
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// parseXLSX reads the first sheet of a workbook. Excelize returns date
// cells as their serial representation when unformatted, which ParseDate
// handles downstream.
func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement rune
// so the CSV reader never chokes on mixed encodings.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
