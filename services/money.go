package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Round2 rounds a monetary value to kopecks, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Round1 rounds a percentage to one decimal place, half away from zero.
func Round1(d decimal.Decimal) decimal.Decimal {
	return d.Round(1)
}

// ValidatePercent checks that p lies in [0, 100].
func ValidatePercent(field string, p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return Validationf("must be between 0 and 100, got %s", p.String()).WithField(field)
	}
	return nil
}

// ParseDecimal parses an exact decimal in canonical form ("1200.50").
func ParseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, Parse("not a decimal: "+quoteValue(s), err).WithField(field)
	}
	return d, nil
}

// percentRatio returns part/whole*100 rounded to one place. A zero whole
// is the arithmetic error case.
func percentRatio(part, whole decimal.Decimal) (decimal.Decimal, error) {
	if whole.IsZero() {
		return decimal.Zero, Arithmetic("percentage of a zero total")
	}
	return Round1(part.Div(whole).Mul(hundred)), nil
}

// percentRatioOrZero applies the zero-total policy: the ratio is 0.
func percentRatioOrZero(part, whole decimal.Decimal) decimal.Decimal {
	r, err := percentRatio(part, whole)
	if IsKind(err, KindArithmetic) {
		return decimal.Zero
	}
	return r
}

// inclusiveVAT extracts the tax contained in a VAT-inclusive amount.
func inclusiveVAT(total, vatPercent decimal.Decimal) decimal.Decimal {
	if vatPercent.IsZero() {
		return decimal.Zero
	}
	return Round2(total.Mul(vatPercent).Div(hundred.Add(vatPercent)))
}

func quoteValue(s string) string {
	const max = 40
	r := []rune(s)
	if len(r) > max {
		s = string(r[:max]) + "…"
	}
	return `"` + s + `"`
}
