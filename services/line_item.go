package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ItemKind distinguishes priced product rows from group header rows.
type ItemKind int

const (
	KindProduct ItemKind = iota
	KindGroupHeader
)

func (k ItemKind) String() string {
	if k == KindGroupHeader {
		return "group_header"
	}
	return "product"
}

// ParseItemKind is the inverse of ItemKind.String.
func ParseItemKind(s string) (ItemKind, error) {
	switch s {
	case "product", "":
		return KindProduct, nil
	case "group_header":
		return KindGroupHeader, nil
	}
	return KindProduct, Parse("unknown item kind "+quoteValue(s), nil).WithField("kind")
}

// DefaultUnit is used when a product row carries no unit.
const DefaultUnit = "шт."

// GroupIndent prefixes product names that appear under a group header.
const GroupIndent = "    "

// LineItem is one row of a quote: either a product or a group header.
// Group headers carry only a name; their quantity and prices are zero and
// never contribute to totals.
type LineItem struct {
	Kind          ItemKind
	Article       string
	Name          string
	Quantity      int
	Unit          string
	SupplierPrice decimal.Decimal
	// Markup overrides the quote-level client markup when Valid.
	Markup decimal.NullDecimal

	// Derived by the pricing engine. Never trusted from storage.
	ClientPrice decimal.Decimal
	LineTotal   decimal.Decimal
}

// NewProduct returns a product row with no markup override.
func NewProduct(article, name string, quantity int, unit string, supplierPrice decimal.Decimal) LineItem {
	if strings.TrimSpace(unit) == "" {
		unit = DefaultUnit
	}
	return LineItem{
		Kind:          KindProduct,
		Article:       article,
		Name:          name,
		Quantity:      quantity,
		Unit:          unit,
		SupplierPrice: supplierPrice,
	}
}

// NewGroupHeader returns a group header row.
func NewGroupHeader(name string) LineItem {
	return LineItem{Kind: KindGroupHeader, Name: name}
}

func (li LineItem) IsGroupHeader() bool {
	return li.Kind == KindGroupHeader
}

// WithMarkup returns a copy of the item with a per-line markup override.
func (li LineItem) WithMarkup(percent decimal.Decimal) LineItem {
	li.Markup = decimal.NewNullDecimal(percent)
	return li
}

// EffectiveMarkup is the line override when set, else the quote markup.
func (li LineItem) EffectiveMarkup(quoteMarkup decimal.Decimal) decimal.Decimal {
	if li.Markup.Valid {
		return li.Markup.Decimal
	}
	return quoteMarkup
}

// Validate checks the stored attributes of the item.
func (li LineItem) Validate() error {
	if li.IsGroupHeader() {
		return nil
	}
	if strings.TrimSpace(li.Name) == "" {
		return Validation("product name is required").WithField("name")
	}
	if li.Quantity < 0 {
		return Validationf("must not be negative, got %d", li.Quantity).WithField("quantity")
	}
	if li.SupplierPrice.IsNegative() {
		return Validationf("must not be negative, got %s", li.SupplierPrice.String()).WithField("supplier_price")
	}
	if li.Markup.Valid && li.Markup.Decimal.IsNegative() {
		return Validationf("must not be negative, got %s", li.Markup.Decimal.String()).WithField("markup")
	}
	return nil
}

// normalized zeroes the fields a group header ignores.
func (li LineItem) normalized() LineItem {
	if li.IsGroupHeader() {
		return LineItem{Kind: KindGroupHeader, Name: li.Name}
	}
	if strings.TrimSpace(li.Unit) == "" {
		li.Unit = DefaultUnit
	}
	return li
}

func (li LineItem) String() string {
	if li.IsGroupHeader() {
		return fmt.Sprintf("== %s ==", li.Name)
	}
	return fmt.Sprintf("%s (%s) - %d %s", li.Name, li.Article, li.Quantity, li.Unit)
}
