package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"vendor-inventory-import/model"
	"vendor-inventory-import/service/common_service/fieldmap"
)

// requiredFields fields every row must carry
type requiredFields struct {
	VendorCode string `json:"vendor_code" validate:"required"`
	PartNumber string `json:"part_number" validate:"required"`
}

// Result outcome of validating one row
type Result struct {
	RowNumber    int
	IsValid      bool
	Errors       []model.ValidationIssue
	Warnings     []model.ValidationIssue
	Cleaned      map[string]string
	Corrections  []model.CorrectionNote
	Status       model.RecordStatus
	CompositeKey string
	Fields       model.InventoryFields
	Extra        map[string]string
}

// Issues errors followed by warnings
func (r *Result) Issues() []model.ValidationIssue {
	out := make([]model.ValidationIssue, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	return append(out, r.Warnings...)
}

// Validator applies structural and business-rule checks to normalized rows. It has no side effects.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewValidator create validator instance
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v, now: time.Now}
}

// WithClock overrides the time stamped on correction notes
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate checks one normalized field map
func (v *Validator) Validate(fields map[string]string, rowNumber int) *Result {
	res := &Result{
		RowNumber: rowNumber,
		Cleaned:   make(map[string]string, len(fields)),
		Extra:     make(map[string]string),
	}
	for k, val := range fields {
		res.Cleaned[k] = strings.TrimSpace(val)
	}
	now := v.now()

	rawVendor := fieldmap.StripFormula(res.Cleaned[fieldmap.FieldVendorCode])
	vendor := NormalizeVendorCode(rawVendor)
	if vendor != rawVendor {
		res.Corrections = append(res.Corrections,
			model.NewCorrectionNote(model.CorrectionSourceValidator, fieldmap.FieldVendorCode, rawVendor, vendor, now))
	}
	part := fieldmap.StripFormula(res.Cleaned[fieldmap.FieldPartNumber])
	res.Cleaned[fieldmap.FieldVendorCode] = vendor
	res.Cleaned[fieldmap.FieldPartNumber] = part
	res.Fields.VendorCode = vendor
	res.Fields.PartNumber = part

	missing := v.checkRequired(vendor, part)
	for _, field := range missing {
		res.Errors = append(res.Errors, model.ValidationIssue{
			Type:         model.IssueTypeMissingField,
			Severity:     model.IssueSeverityError,
			Field:        field,
			Description:  fmt.Sprintf("row %d: %s is required", rowNumber, field),
			SuggestedFix: fmt.Sprintf("enter a %s for this row", strings.ReplaceAll(field, "_", " ")),
		})
	}

	v.coerceNumbers(res)
	res.Fields.KitFlag = ParseBool(res.Cleaned[fieldmap.FieldKitFlag])
	res.Cleaned[fieldmap.FieldKitFlag] = strconv.FormatBool(res.Fields.KitFlag)
	res.Fields.Name = res.Cleaned[fieldmap.FieldName]
	res.Fields.Description = res.Cleaned[fieldmap.FieldDescription]
	res.Fields.Upc = res.Cleaned[fieldmap.FieldUpc]
	res.Fields.UnitOfMeasure = res.Cleaned[fieldmap.FieldUnitOfMeasure]
	res.Fields.KitComponents = res.Cleaned[fieldmap.FieldKitComponents]

	for k, val := range res.Cleaned {
		if !fieldmap.IsKnownField(k) {
			res.Extra[k] = val
		}
	}

	if len(missing) == 0 {
		v.checkCompositeKey(res, now)
	} else {
		res.CompositeKey = res.Cleaned[fieldmap.FieldCompositeKey]
	}
	v.checkAggregate(res, now)

	switch {
	case len(res.Errors) > 0:
		res.Status = model.RecordStatusInvalid
	case len(res.Warnings) > 0 || len(res.Corrections) > 0:
		res.Status = model.RecordStatusCorrected
	default:
		res.Status = model.RecordStatusValid
	}
	res.IsValid = len(res.Errors) == 0
	return res
}

// checkRequired returns the names of missing required fields in declaration order
func (v *Validator) checkRequired(vendor, part string) []string {
	err := v.validate.Struct(requiredFields{VendorCode: vendor, PartNumber: part})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{fieldmap.FieldVendorCode, fieldmap.FieldPartNumber}
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return missing
}

func (v *Validator) coerceNumbers(res *Result) {
	decimals := map[string]*decimal.Decimal{
		fieldmap.FieldCost:      &res.Fields.Cost,
		fieldmap.FieldListPrice: &res.Fields.ListPrice,
		fieldmap.FieldCorePrice: &res.Fields.CorePrice,
		fieldmap.FieldWeight:    &res.Fields.Weight,
		fieldmap.FieldLength:    &res.Fields.Length,
		fieldmap.FieldWidth:     &res.Fields.Width,
		fieldmap.FieldHeight:    &res.Fields.Height,
	}
	names := make([]string, 0, len(decimals))
	for name := range decimals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		raw, present := res.Cleaned[name]
		if !present {
			continue
		}
		d, ok := ParseDecimal(raw)
		if !ok {
			res.Warnings = append(res.Warnings, unparsableIssue(res.RowNumber, name, raw))
		}
		*decimals[name] = d
		res.Cleaned[name] = d.String()
	}

	locationFields := make([]string, 0)
	for k := range res.Cleaned {
		if _, ok := fieldmap.LocationOf(k); ok {
			locationFields = append(locationFields, k)
		}
	}
	sort.Strings(locationFields)
	for _, field := range locationFields {
		raw := res.Cleaned[field]
		if raw == "" {
			continue
		}
		loc, _ := fieldmap.LocationOf(field)
		res.Fields.LocationQuantities = append(res.Fields.LocationQuantities, model.LocationQuantity{
			Location: loc,
			Quantity: v.quantity(res, field, raw),
		})
	}
	model.SortLocations(res.Fields.LocationQuantities)
}

// quantity coerces one quantity cell, recording warnings on the result
func (v *Validator) quantity(res *Result, field, raw string) int64 {
	qty, ok, truncated := ParseQuantity(raw)
	switch {
	case !ok:
		res.Warnings = append(res.Warnings, unparsableIssue(res.RowNumber, field, raw))
	case truncated:
		res.Warnings = append(res.Warnings, model.ValidationIssue{
			Type:         model.IssueTypeInvalidFormat,
			Severity:     model.IssueSeverityWarning,
			Field:        field,
			Value:        raw,
			Description:  fmt.Sprintf("row %d: %s %q is not a whole number, truncated to %d", res.RowNumber, field, raw, qty),
			SuggestedFix: "enter a whole-number quantity",
		})
	}
	res.Cleaned[field] = strconv.FormatInt(qty, 10)
	return qty
}

func (v *Validator) checkCompositeKey(res *Result, now time.Time) {
	supplied := res.Cleaned[fieldmap.FieldCompositeKey]
	expected := CompositeKey(res.Fields.VendorCode, res.Fields.PartNumber)
	res.CompositeKey = expected
	res.Cleaned[fieldmap.FieldCompositeKey] = expected
	if supplied == expected {
		return
	}
	desc := fmt.Sprintf("row %d: composite key computed as %q", res.RowNumber, expected)
	if supplied != "" {
		desc = fmt.Sprintf("row %d: composite key %q does not match vendor code and part number, recomputed as %q",
			res.RowNumber, supplied, expected)
	}
	res.Warnings = append(res.Warnings, model.ValidationIssue{
		Type:         model.IssueTypeCalculationError,
		Severity:     model.IssueSeverityWarning,
		Field:        fieldmap.FieldCompositeKey,
		Value:        supplied,
		Description:  desc,
		SuggestedFix: "composite key is vendor code followed by the normalized part number",
	})
	res.Corrections = append(res.Corrections,
		model.NewCorrectionNote(model.CorrectionSourceValidator, fieldmap.FieldCompositeKey, supplied, expected, now))
}

func (v *Validator) checkAggregate(res *Result, now time.Time) {
	raw := res.Cleaned[fieldmap.FieldTotalQty]
	var supplied int64
	if raw != "" {
		supplied = v.quantity(res, fieldmap.FieldTotalQty, raw)
	}
	res.Fields.TotalQuantity = supplied
	if len(res.Fields.LocationQuantities) == 0 {
		if raw != "" {
			res.Cleaned[fieldmap.FieldTotalQty] = strconv.FormatInt(supplied, 10)
		}
		return
	}

	sum, ok := model.SumLocationsChecked(res.Fields.LocationQuantities)
	if !ok {
		res.Warnings = append(res.Warnings, model.ValidationIssue{
			Type:         model.IssueTypeInvalidFormat,
			Severity:     model.IssueSeverityWarning,
			Field:        fieldmap.FieldTotalQty,
			Value:        raw,
			Description:  fmt.Sprintf("row %d: location quantities overflow, total capped at %d", res.RowNumber, sum),
			SuggestedFix: "check the location quantities for this row",
		})
	}
	res.Fields.TotalQuantity = sum
	res.Cleaned[fieldmap.FieldTotalQty] = strconv.FormatInt(sum, 10)
	if raw != "" && supplied == sum {
		return
	}
	oldValue := raw
	if raw != "" {
		oldValue = strconv.FormatInt(supplied, 10)
	}
	res.Warnings = append(res.Warnings, model.ValidationIssue{
		Type:         model.IssueTypeCalculationError,
		Severity:     model.IssueSeverityWarning,
		Field:        fieldmap.FieldTotalQty,
		Value:        raw,
		Description:  fmt.Sprintf("row %d: total quantity %q recomputed as %d from location quantities", res.RowNumber, raw, sum),
		SuggestedFix: "total quantity is the sum of the location quantities",
	})
	res.Corrections = append(res.Corrections,
		model.NewCorrectionNote(model.CorrectionSourceValidator, fieldmap.FieldTotalQty, oldValue, strconv.FormatInt(sum, 10), now))
}

func unparsableIssue(rowNumber int, field, raw string) model.ValidationIssue {
	return model.ValidationIssue{
		Type:         model.IssueTypeInvalidFormat,
		Severity:     model.IssueSeverityWarning,
		Field:        field,
		Value:        raw,
		Description:  fmt.Sprintf("row %d: %s %q is not a number, set to 0", rowNumber, field, raw),
		SuggestedFix: fmt.Sprintf("enter a numeric %s", strings.ReplaceAll(field, "_", " ")),
	}
}
