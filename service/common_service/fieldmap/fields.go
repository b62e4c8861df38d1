package fieldmap

import "strings"

// Canonical field names
const (
	FieldVendorCode    = "vendor_code"
	FieldPartNumber    = "part_number"
	FieldCompositeKey  = "composite_key"
	FieldName          = "name"
	FieldDescription   = "description"
	FieldTotalQty      = "total_qty"
	FieldCost          = "cost"
	FieldListPrice     = "list_price"
	FieldCorePrice     = "core_price"
	FieldWeight        = "weight"
	FieldLength        = "length"
	FieldWidth         = "width"
	FieldHeight        = "height"
	FieldUpc           = "upc"
	FieldUnitOfMeasure = "unit_of_measure"
	FieldKitFlag       = "kit_flag"
	FieldKitComponents = "kit_components"

	locationSuffix = "_qty"
)

// DefaultLocations stocking locations recognized out of the box
var DefaultLocations = []string{"east", "midwest", "west", "south", "central"}

// canonicalSynonyms accepted header spellings per canonical field, in compact form
var canonicalSynonyms = map[string][]string{
	FieldVendorCode: {"vendorcode", "vendor", "vendorid", "vendorno", "supplier", "suppliercode", "supplierid",
		"mfr", "mfrcode", "manufacturer", "manufacturercode", "linecode", "brandcode"},
	FieldPartNumber: {"partnumber", "partno", "partnum", "part", "sku", "itemnumber", "itemno", "item", "mpn",
		"productcode", "partid"},
	FieldCompositeKey: {"compositekey", "key", "itemkey", "uniquekey", "vendorpartkey", "vendorpart"},
	FieldName:         {"name", "productname", "displayname", "title", "itemname"},
	FieldDescription:  {"description", "desc", "itemdescription", "productdescription", "longdescription"},
	FieldTotalQty: {"totalqty", "totalquantity", "total", "qty", "quantity", "onhand", "qoh", "qtyonhand",
		"aggregateqty", "available", "totalonhand", "stock"},
	FieldCost:          {"cost", "unitcost", "dealercost", "netcost", "net", "yourcost"},
	FieldListPrice:     {"listprice", "list", "msrp", "retail", "retailprice", "price", "sellprice"},
	FieldCorePrice:     {"coreprice", "core", "corecharge", "corecost"},
	FieldWeight:        {"weight", "weightlbs", "wt", "lbs", "shippingweight"},
	FieldLength:        {"length", "len", "lengthin"},
	FieldWidth:         {"width", "widthin"},
	FieldHeight:        {"height", "heightin"},
	FieldUpc:           {"upc", "barcode", "ean", "gtin", "upccode"},
	FieldUnitOfMeasure: {"unitofmeasure", "uom", "unit", "units"},
	FieldKitFlag:       {"kitflag", "kit", "iskit"},
	FieldKitComponents: {"kitcomponents", "components", "kititems", "kitparts"},
}

// locationSynonymForms header spellings for a location quantity; %s is the location
var locationSynonymForms = []string{"%sqty", "%squantity", "qty%s", "quantity%s", "%sonhand", "%sstock", "%sinventory"}

// NumericFields fields coerced to numbers besides location quantities
var NumericFields = []string{FieldTotalQty, FieldCost, FieldListPrice, FieldCorePrice, FieldWeight, FieldLength, FieldWidth, FieldHeight}

// BooleanFields fields coerced to booleans
var BooleanFields = []string{FieldKitFlag}

// LocationField canonical field name for a location quantity
func LocationField(location string) string {
	return location + locationSuffix
}

// LocationOf returns the location of a per-location quantity field
func LocationOf(field string) (string, bool) {
	if field == FieldTotalQty || !strings.HasSuffix(field, locationSuffix) {
		return "", false
	}
	loc := strings.TrimSuffix(field, locationSuffix)
	if loc == "" {
		return "", false
	}
	return loc, true
}

// IsKnownField reports whether a field is part of the canonical set
func IsKnownField(field string) bool {
	if _, ok := canonicalSynonyms[field]; ok {
		return true
	}
	_, ok := LocationOf(field)
	return ok
}
