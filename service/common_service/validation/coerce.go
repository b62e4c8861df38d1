package validation

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	maxQuantity = decimal.NewFromInt(math.MaxInt64)
	minQuantity = decimal.NewFromInt(math.MinInt64)
)

var trueTokens = map[string]bool{"true": true, "1": true, "yes": true, "y": true}

// ParseBool accepts true/1/yes/y in any case; everything else is false
func ParseBool(raw string) bool {
	return trueTokens[strings.ToLower(strings.TrimSpace(raw))]
}

// ParseDecimal parses money and measure cells such as "$1,234.50" or "(12.00)".
// Empty input is zero and ok; unparsable input is zero and not ok.
func ParseDecimal(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, true
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ParseQuantity parses a whole-number quantity. Fractions are truncated and reported.
// Values outside the int64 range are unparsable.
func ParseQuantity(raw string) (qty int64, ok bool, truncated bool) {
	d, ok := ParseDecimal(raw)
	if !ok {
		return 0, false, false
	}
	whole := d.Truncate(0)
	if whole.GreaterThan(maxQuantity) || whole.LessThan(minQuantity) {
		return 0, false, false
	}
	return whole.IntPart(), true, !whole.Equal(d)
}
