package validation

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"vendor-inventory-import/model"
	"vendor-inventory-import/service/common_service/fieldmap"
)

func normalize(raw map[string]string) map[string]string {
	return fieldmap.NewNormalizer(nil).NormalizeFields(raw)
}

func TestValidate_FormulaPartNumber(t *testing.T) {
	v := NewValidator()
	res := v.Validate(normalize(map[string]string{"vendor_code": "ABC", "part_number": `="10406"`}), 2)

	if res.Fields.PartNumber != "10406" {
		t.Errorf("Expected part number 10406, got %q", res.Fields.PartNumber)
	}
	if res.CompositeKey != "ABC10406" {
		t.Errorf("Expected composite key ABC10406, got %q", res.CompositeKey)
	}
	if res.Status != model.RecordStatusCorrected {
		t.Errorf("Expected status corrected, got %s", res.Status)
	}
	if !res.IsValid {
		t.Errorf("Expected row to be valid")
	}
}

func TestValidate_AggregateRecomputed(t *testing.T) {
	v := NewValidator()
	res := v.Validate(map[string]string{
		"vendor_code":   "ABC",
		"part_number":   "1",
		"composite_key": "ABC1",
		"east_qty":      "5",
		"midwest_qty":   "3",
	}, 2)

	if res.Fields.TotalQuantity != 8 {
		t.Errorf("Expected aggregate 8, got %d", res.Fields.TotalQuantity)
	}
	if res.Cleaned[fieldmap.FieldTotalQty] != "8" {
		t.Errorf("Expected cleaned total_qty 8, got %q", res.Cleaned[fieldmap.FieldTotalQty])
	}
	if res.Status != model.RecordStatusCorrected {
		t.Errorf("Expected status corrected, got %s", res.Status)
	}
	if len(res.Corrections) != 1 || res.Corrections[0].Field != fieldmap.FieldTotalQty {
		t.Errorf("Expected one total_qty correction, got %+v", res.Corrections)
	}
}

func TestValidate_MissingVendorCode(t *testing.T) {
	v := NewValidator()
	res := v.Validate(map[string]string{"vendor_code": "", "part_number": "10406"}, 7)

	if res.Status != model.RecordStatusInvalid {
		t.Errorf("Expected status invalid, got %s", res.Status)
	}
	missing := 0
	for _, issue := range res.Issues() {
		if issue.Type == model.IssueTypeMissingField {
			missing++
			if issue.Field != fieldmap.FieldVendorCode {
				t.Errorf("Expected missing field vendor_code, got %s", issue.Field)
			}
		}
	}
	if missing != 1 {
		t.Errorf("Expected 1 missing_field issue, got %d", missing)
	}
}

func TestValidate_Clean(t *testing.T) {
	v := NewValidator()
	res := v.Validate(map[string]string{
		"vendor_code":   "ABC",
		"part_number":   "10406",
		"composite_key": "ABC10406",
		"total_qty":     "12",
		"cost":          "$1,234.50",
		"kit_flag":      "Yes",
	}, 2)

	if res.Status != model.RecordStatusValid {
		t.Errorf("Expected status valid, got %s (warnings %v)", res.Status, res.Warnings)
	}
	if !res.Fields.Cost.Equal(decimal.RequireFromString("1234.5")) {
		t.Errorf("Expected cost 1234.5, got %s", res.Fields.Cost)
	}
	if !res.Fields.KitFlag {
		t.Errorf("Expected kit flag true")
	}
	if res.Fields.TotalQuantity != 12 {
		t.Errorf("Expected total 12 kept without location columns, got %d", res.Fields.TotalQuantity)
	}
}

func TestValidate_UnparsableNumberIsWarning(t *testing.T) {
	v := NewValidator()
	res := v.Validate(map[string]string{
		"vendor_code":   "ABC",
		"part_number":   "1",
		"composite_key": "ABC1",
		"weight":        "heavy",
	}, 3)

	if res.Status != model.RecordStatusCorrected {
		t.Errorf("Expected status corrected, got %s", res.Status)
	}
	if !res.Fields.Weight.IsZero() {
		t.Errorf("Expected weight 0, got %s", res.Fields.Weight)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Type != model.IssueTypeInvalidFormat {
		t.Errorf("Expected one invalid_format warning, got %+v", res.Warnings)
	}
}

func TestValidate_InvariantsHoldForAcceptedRows(t *testing.T) {
	v := NewValidator()
	rows := []map[string]string{
		{"vendor_code": " abc ", "part_number": " 10 406 ", "east_qty": "1", "west_qty": "2", "total_qty": "99"},
		{"vendor_code": "XYZ", "part_number": `="a-1"`, "composite_key": "WRONG"},
		{"vendor_code": "XYZ", "part_number": "B", "south_qty": "2.7"},
	}
	for i, row := range rows {
		res := v.Validate(normalize(row), i+2)
		if !res.Status.IsAcceptable() {
			t.Fatalf("Expected row %d to be accepted, got %s", i, res.Status)
		}
		if res.CompositeKey != CompositeKey(res.Fields.VendorCode, res.Fields.PartNumber) {
			t.Errorf("Row %d: key %q inconsistent with %q/%q", i, res.CompositeKey, res.Fields.VendorCode, res.Fields.PartNumber)
		}
		if len(res.Fields.LocationQuantities) > 0 && res.Fields.TotalQuantity != model.SumLocations(res.Fields.LocationQuantities) {
			t.Errorf("Row %d: aggregate %d differs from location sum", i, res.Fields.TotalQuantity)
		}
	}
}

func TestParseHelpers(t *testing.T) {
	if d, ok := ParseDecimal("(12.50)"); !ok || !d.Equal(decimal.RequireFromString("-12.5")) {
		t.Errorf("Expected -12.5, got %s (%v)", d, ok)
	}
	if _, ok := ParseDecimal("n/a"); ok {
		t.Errorf("Expected n/a to be unparsable")
	}
	if q, ok, truncated := ParseQuantity("2.7"); !ok || q != 2 || !truncated {
		t.Errorf("Expected 2 truncated, got %d %v %v", q, ok, truncated)
	}
	for _, tok := range []string{"true", "1", "YES", "y"} {
		if !ParseBool(tok) {
			t.Errorf("Expected %q to be true", tok)
		}
	}
	if ParseBool("x") {
		t.Errorf("Expected x to be false")
	}
}

func TestValidate_QuantityOutOfRange(t *testing.T) {
	for _, raw := range []string{"99999999999999999999", "-99999999999999999999"} {
		if q, ok, _ := ParseQuantity(raw); ok || q != 0 {
			t.Errorf("Expected %s to be unparsable, got %d %v", raw, q, ok)
		}
	}

	v := NewValidator()
	res := v.Validate(map[string]string{
		"vendor_code": "ABC",
		"part_number": "1",
		"east_qty":    "99999999999999999999",
		"west_qty":    "4",
	}, 5)

	if res.Fields.TotalQuantity != 4 {
		t.Errorf("Expected total 4 from the parsable location, got %d", res.Fields.TotalQuantity)
	}
	if res.Cleaned["east_qty"] != "0" {
		t.Errorf("Expected east_qty cleaned to 0, got %q", res.Cleaned["east_qty"])
	}
	found := false
	for _, w := range res.Warnings {
		if w.Field == "east_qty" && w.Type == model.IssueTypeInvalidFormat {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected invalid_format warning on east_qty, got %+v", res.Warnings)
	}
	if res.Status != model.RecordStatusCorrected {
		t.Errorf("Expected status corrected, got %s", res.Status)
	}
}

func TestValidate_LocationSumOverflowIsCapped(t *testing.T) {
	v := NewValidator()
	res := v.Validate(map[string]string{
		"vendor_code": "ABC",
		"part_number": "1",
		"east_qty":    "9223372036854775807",
		"west_qty":    "1",
	}, 2)

	if res.Fields.TotalQuantity != math.MaxInt64 {
		t.Errorf("Expected total capped at MaxInt64, got %d", res.Fields.TotalQuantity)
	}
	found := false
	for _, w := range res.Warnings {
		if w.Field == fieldmap.FieldTotalQty && w.Type == model.IssueTypeInvalidFormat {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected invalid_format warning on total_qty, got %+v", res.Warnings)
	}
}

func TestValidate_VendorCaseFoldIsRecorded(t *testing.T) {
	v := NewValidator()
	res := v.Validate(map[string]string{"vendor_code": "abc", "part_number": "1", "composite_key": "ABC1"}, 2)

	if res.Fields.VendorCode != "ABC" {
		t.Errorf("Expected vendor code ABC, got %q", res.Fields.VendorCode)
	}
	if len(res.Corrections) != 1 {
		t.Fatalf("Expected one correction, got %+v", res.Corrections)
	}
	note := res.Corrections[0]
	if note.Field != fieldmap.FieldVendorCode || note.OldValue != "abc" || note.NewValue != "ABC" || note.Source != model.CorrectionSourceValidator {
		t.Errorf("Unexpected vendor correction %+v", note)
	}
	if res.Status != model.RecordStatusCorrected {
		t.Errorf("Expected status corrected, got %s", res.Status)
	}

	clean := v.Validate(map[string]string{"vendor_code": "ABC", "part_number": "1", "composite_key": "ABC1"}, 3)
	if len(clean.Corrections) != 0 {
		t.Errorf("Expected no corrections for an upper-case vendor, got %+v", clean.Corrections)
	}
}
