package services

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	vingsMArticle  = regexp.MustCompile(`\((.*?)\)`)
	vingsMQuantity = regexp.MustCompile(`^(\d+)\s*([\p{L}.]+)?`)
)

// VingsMFormat reads invoices of ЗАО "ВИНГС-М": numbered positions, the
// article in parentheses inside the name, quantity and unit in one cell and
// the price without VAT in the sixth column.
type VingsMFormat struct{}

func (VingsMFormat) Name() string { return "ВИНГС-М" }

func (VingsMFormat) Matches(firstPageText string) bool {
	return strings.Contains(firstPageText, "ВИНГС-М")
}

func (VingsMFormat) RequiresHeader() bool { return true }

func (VingsMFormat) ParseRow(cells []string, opts ImportOptions) (LineItem, bool, error) {
	if len(cells) < 2 || !isDigits(strings.TrimSpace(cells[0])) {
		return LineItem{}, false, nil
	}
	name := strings.TrimSpace(cells[1])
	lower := strings.ToLower(name)
	if name == "" || strings.HasPrefix(lower, "итого") || strings.HasPrefix(lower, "всего") {
		return LineItem{}, false, nil
	}

	article := ""
	if m := vingsMArticle.FindStringSubmatch(name); m != nil {
		article = strings.TrimSpace(m[1])
	}

	qty, unit := 0, opts.unit()
	if len(cells) > 2 {
		if m := vingsMQuantity.FindStringSubmatch(strings.TrimSpace(cells[2])); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return LineItem{}, false, Parse("not a number: "+quoteValue(cells[2]), err).WithField(string(FieldQuantity))
			}
			qty = n
			if m[2] != "" {
				unit = m[2]
			}
		}
	}
	if qty <= 0 {
		return LineItem{}, false, nil
	}

	if len(cells) <= 5 {
		return LineItem{}, false, nil
	}
	price, ok, err := positivePrice(cells[5])
	if err != nil || !ok {
		return LineItem{}, false, err
	}

	return NewProduct(article, name, qty, unit, price), true, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
