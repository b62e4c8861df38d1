package import_service

import (
	"io"
	"strings"
	"testing"

	"vendor-inventory-import/service/common_service/fieldmap"
)

func TestIsCSVUpload(t *testing.T) {
	cases := []struct {
		filename    string
		contentType string
		want        bool
	}{
		{"inventory.csv", "text/csv", true},
		{"INVENTORY.CSV", "text/csv; charset=utf-8", true},
		{"inventory.csv", "application/vnd.ms-excel", true},
		{"inventory.csv", "application/octet-stream", true},
		{"inventory.csv", "", true},
		{"inventory.csv", "image/png", false},
		{"inventory.xlsx", "text/csv", false},
		{"inventory", "text/csv", false},
		{"inventory.csv", "text/csv; charset", false},
	}
	for _, tc := range cases {
		if got := IsCSVUpload(tc.filename, tc.contentType); got != tc.want {
			t.Errorf("IsCSVUpload(%q, %q) = %v, want %v", tc.filename, tc.contentType, got, tc.want)
		}
	}
}

func TestCsvSourceSkipsBlankRows(t *testing.T) {
	normalizer := fieldmap.NewNormalizer(fieldmap.DefaultLocations)
	data := "\ufeffSKU,Vendor,,Bin\nP1,ABC,x,A1\n,,,\nP2,ABC,y,B2\n"
	src, err := NewCsvSource(strings.NewReader(data), normalizer)
	if err != nil {
		t.Fatalf("NewCsvSource: %v", err)
	}

	if got := src.Headers(); got[0] != "SKU" || got[2] != "column_3" {
		t.Errorf("headers = %v", got)
	}
	if got := src.Fields(); got[0] != fieldmap.FieldPartNumber || got[1] != fieldmap.FieldVendorCode || got[3] != "bin" {
		t.Errorf("fields = %v", got)
	}

	first, err := src.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	second, err := src.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first.Ordinal != 0 || first.Line != 2 || second.Ordinal != 1 || second.Line != 4 {
		t.Errorf("rows = %+v, %+v", first, second)
	}
	if payload := src.Payload(second); payload["SKU"] != "P2" || payload["Bin"] != "B2" {
		t.Errorf("payload = %v", payload)
	}
	if _, err := src.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestCsvSourceSkip(t *testing.T) {
	normalizer := fieldmap.NewNormalizer(nil)
	data := "Part,Vendor\nP1,A\nP2,A\nP3,A\n"

	src, err := NewCsvSource(strings.NewReader(data), normalizer)
	if err != nil {
		t.Fatalf("NewCsvSource: %v", err)
	}
	if err := src.Skip(2); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	row, err := src.Next()
	if err != nil || row.Cells[0] != "P3" || row.Ordinal != 2 {
		t.Errorf("row after skip = %+v, %v", row, err)
	}

	src, _ = NewCsvSource(strings.NewReader(data), normalizer)
	if err := src.Skip(4); err != ErrSourceExhausted {
		t.Errorf("expected ErrSourceExhausted, got %v", err)
	}
}

func TestCountRows(t *testing.T) {
	normalizer := fieldmap.NewNormalizer(nil)

	n, err := CountRows(strings.NewReader("Part,Vendor\nP1,A\n\nP2,A\n"), normalizer)
	if err != nil || n != 2 {
		t.Errorf("CountRows = %d, %v", n, err)
	}
	if _, err := CountRows(strings.NewReader(""), normalizer); err != ErrEmptyFile {
		t.Errorf("empty file: %v", err)
	}
	if _, err := CountRows(strings.NewReader("Part,Vendor\n"), normalizer); err != ErrEmptyFile {
		t.Errorf("header only: %v", err)
	}
}

func TestSpreadsheetTextGuardIsAccepted(t *testing.T) {
	normalizer := fieldmap.NewNormalizer(nil)
	src, err := NewCsvSource(strings.NewReader("Vendor,Part Number\nABC,=\"10406\"\n"), normalizer)
	if err != nil {
		t.Fatalf("NewCsvSource: %v", err)
	}
	row, err := src.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if row.Cells[1] != `="10406"` {
		t.Errorf("cell = %q", row.Cells[1])
	}
}
