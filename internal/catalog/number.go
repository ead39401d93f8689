package catalog

import "github.com/shopspring/decimal"

// Number is a decimal that is written as a bare JSON number. It reads both
// numbers and numeric strings.
type Number struct {
	decimal.Decimal
}

func NewNumber(d decimal.Decimal) Number { return Number{Decimal: d} }

func NumberFromInt(n int64) Number { return Number{Decimal: decimal.NewFromInt(n)} }

func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.String()), nil
}
