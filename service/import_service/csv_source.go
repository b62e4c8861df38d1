package import_service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"vendor-inventory-import/service/common_service/fieldmap"
)

// csvContentTypes content types browsers and clients send for CSV files
var csvContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"text/plain":               true,
	"application/vnd.ms-excel": true,
}

// IsCSVUpload checks the extension and the declared content type of an upload
func IsCSVUpload(filename, contentType string) bool {
	if strings.ToLower(filepath.Ext(filename)) != ".csv" {
		return false
	}
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return csvContentTypes[mediaType] || mediaType == "application/octet-stream"
}

// CsvRow one non-blank data row
type CsvRow struct {
	Ordinal int // 0-based among data rows
	Line    int // Line number in the file, the header is line 1
	Cells   []string
}

// CsvSource streams data rows of a CSV file. Blank rows are skipped and do not take an ordinal.
type CsvSource struct {
	reader  *csv.Reader
	headers []string
	fields  []string
	ordinal int
}

// NewCsvSource reads the header row
func NewCsvSource(r io.Reader, normalizer *fieldmap.Normalizer) (*CsvSource, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	// Spreadsheet exports leave ="..." text guards unquoted
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, asFileError(err, 1)
	}

	headers := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		headers[i] = h
	}

	return &CsvSource{
		reader:  reader,
		headers: headers,
		fields:  normalizer.MapHeaders(header),
	}, nil
}

// Headers raw header names
func (s *CsvSource) Headers() []string { return s.headers }

// Fields canonical field name per column
func (s *CsvSource) Fields() []string { return s.fields }

// Next returns the next non-blank row, io.EOF at the end
func (s *CsvSource) Next() (*CsvRow, error) {
	for {
		cells, err := s.reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			line, _ := s.reader.FieldPos(0)
			return nil, asFileError(err, line)
		}
		if isBlank(cells) {
			continue
		}
		line, _ := s.reader.FieldPos(0)
		row := &CsvRow{Ordinal: s.ordinal, Line: line, Cells: cells}
		s.ordinal++
		return row, nil
	}
}

// Skip advances past n data rows
func (s *CsvSource) Skip(n int) error {
	for i := 0; i < n; i++ {
		if _, err := s.Next(); err != nil {
			if err == io.EOF {
				return ErrSourceExhausted
			}
			return err
		}
	}
	return nil
}

// Payload original header -> cell map of a row. Later duplicate headers only fill empty values.
func (s *CsvSource) Payload(row *CsvRow) map[string]interface{} {
	payload := make(map[string]interface{}, len(s.headers))
	for i, h := range s.headers {
		value := ""
		if i < len(row.Cells) {
			value = row.Cells[i]
		}
		if existing, ok := payload[h]; ok && existing != "" {
			continue
		}
		payload[h] = value
	}
	return payload
}

// CountRows validates the whole file and counts its data rows
func CountRows(r io.Reader, normalizer *fieldmap.Normalizer) (int, error) {
	src, err := NewCsvSource(r, normalizer)
	if err != nil {
		return 0, err
	}
	count := 0
	for {
		_, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		count++
	}
	if count == 0 {
		return 0, ErrEmptyFile
	}
	return count, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func asFileError(err error, line int) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &FileError{Line: parseErr.StartLine, Err: parseErr.Err}
	}
	return &FileError{Line: line, Err: err}
}
