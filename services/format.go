package services

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// FormatRUB formats an amount in roubles the way printed offers show it:
// space-grouped thousands, a decimal comma and the rouble sign.
// 1200.5 → "1 200,50 ₽"
func FormatRUB(amount decimal.Decimal) string {
	return FormatAmount(amount) + " ₽"
}

// FormatAmount is FormatRUB without the currency sign: "1 200,50".
func FormatAmount(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	raw := amount.Abs().StringFixed(2)

	intPart, decPart, _ := strings.Cut(raw, ".")
	result := applyThousandsGrouping(intPart) + "," + decPart
	if negative && !amount.Round(2).IsZero() {
		result = "-" + result
	}
	return result
}

// FormatQuantity groups thousands with spaces: 1000 → "1 000".
func FormatQuantity(qty int) string {
	if qty < 0 {
		return "-" + applyThousandsGrouping(strconv.Itoa(-qty))
	}
	return applyThousandsGrouping(strconv.Itoa(qty))
}

// FormatPercent renders one decimal place with a comma: "33,3%".
func FormatPercent(p decimal.Decimal) string {
	return strings.Replace(p.StringFixed(1), ".", ",", 1) + "%"
}

// applyThousandsGrouping inserts a space between every group of three
// digits counted from the right.
func applyThousandsGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// ParseUserDecimal reads a number typed or pasted by a user: spaces (NBSP
// included), "₽" and "%" are removed and ',' is the decimal separator.
// Anything else is a parse error.
func ParseUserDecimal(field, s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '₽' || r == '%' {
			return -1
		}
		return r
	}, s)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return decimal.Zero, Parse("value is empty", nil).WithField(field)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, Parse("not a number: "+quoteValue(s), err).WithField(field)
	}
	return d, nil
}
