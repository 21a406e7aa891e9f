package ingestion

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// deliveryLayout is day/month/two-digit-year. Years 69-99 map to the 1900s,
// 00-68 to the 2000s.
const deliveryLayout = "2/1/06"

// maxExponent bounds accepted exponents. Rounding rescales to a fixed number
// of places, which would otherwise allocate an integer of any size.
const maxExponent = 4096

// Trim normalizes a raw field value.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// ParseDate parses a delivery date. It returns nil for anything that does
// not match the report's date layout.
func ParseDate(s string) *time.Time {
	s = Trim(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(deliveryLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// ParseDecimal parses an amount or quantity after removing any whitespace.
// Empty and malformed input yields nil. Infinities and NaN have no decimal
// form and are treated as malformed, as are exponents beyond maxExponent.
func ParseDecimal(s string) *decimal.Decimal {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	if e := d.Exponent(); e > maxExponent || e < -maxExponent {
		return nil
	}
	return &d
}
