package validation

import (
	"strings"
	"unicode"

	"vendor-inventory-import/model"
	"vendor-inventory-import/service/common_service/fieldmap"
)

// NormalizeVendorCode trims, strips formula wrapping and upper-cases a vendor code
func NormalizeVendorCode(v string) string {
	return strings.ToUpper(fieldmap.StripFormula(v))
}

// NormalizePartNumber strips formula wrapping, drops whitespace and upper-cases a part number
func NormalizePartNumber(p string) string {
	p = fieldmap.StripFormula(p)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, p)
}

// CompositeKey derives the natural key: vendor code followed by the normalized part number
func CompositeKey(vendorCode, partNumber string) string {
	return NormalizeVendorCode(vendorCode) + NormalizePartNumber(partNumber)
}

// KeyConsistent reports whether a record's key matches its vendor code and part number
func KeyConsistent(r *model.StagingRecord) bool {
	return r.CompositeKey == CompositeKey(r.VendorCode, r.PartNumber)
}

// AggregateConsistent reports whether the total equals the sum of location quantities.
// Records without location quantities are always consistent.
func AggregateConsistent(r *model.StagingRecord) bool {
	if len(r.LocationQuantities) == 0 {
		return true
	}
	return r.TotalQuantity == model.SumLocations(r.LocationQuantities)
}
