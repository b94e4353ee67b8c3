// Package services holds the quote core: pricing, import normalisation,
// persistence and document exports.
package services

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Totals are the quote-wide financial aggregates. Monetary fields are
// rounded to 2 places, percentages to 1.
type Totals struct {
	ItemCount            int
	SupplierTotal        decimal.Decimal
	DiscountedTotal      decimal.Decimal
	FinalTotal           decimal.Decimal
	VATAmount            decimal.Decimal
	Margin               decimal.Decimal
	MarginPercent        decimal.Decimal
	ClientSavings        decimal.Decimal
	ClientSavingsPercent decimal.Decimal
}

func validateDiscountMarkup(discount, markup decimal.Decimal) error {
	if err := ValidatePercent("discount_from_supplier", discount); err != nil {
		return err
	}
	return ValidatePercent("markup_for_client", markup)
}

// ComputeLinePrice returns the client unit price and line total of a product:
//
//	clientPrice = round2(supplierPrice × (1 − discount/100) × (1 + markup/100))
//	lineTotal   = round2(clientPrice × quantity)
//
// where markup is the line's override if set. Group headers yield zeros.
func ComputeLinePrice(item LineItem, discount, markup decimal.Decimal) (clientPrice, lineTotal decimal.Decimal, err error) {
	if item.IsGroupHeader() {
		return decimal.Zero, decimal.Zero, nil
	}
	if err := validateDiscountMarkup(discount, markup); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if err := item.Validate(); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	clientPrice, lineTotal = linePrice(item, discount, markup)
	return clientPrice, lineTotal, nil
}

// linePrice assumes validated inputs.
func linePrice(item LineItem, discount, markup decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	effective := item.EffectiveMarkup(markup)
	discounted := item.SupplierPrice.Mul(one.Sub(discount.Div(hundred)))
	clientPrice := Round2(discounted.Mul(one.Add(effective.Div(hundred))))
	lineTotal := Round2(clientPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	return clientPrice, lineTotal
}

// ApplyLinePrice computes the item's prices and stores them on the item.
// A group header gets zero prices.
func ApplyLinePrice(item *LineItem, discount, markup decimal.Decimal) error {
	clientPrice, lineTotal, err := ComputeLinePrice(*item, discount, markup)
	if err != nil {
		return err
	}
	item.ClientPrice = clientPrice
	item.LineTotal = lineTotal
	return nil
}

// UpdateAllPrices reprices every product in place. All items are validated
// before any of them is written, so a failure leaves the slice untouched.
// Calling it twice with the same inputs is a no-op the second time.
func UpdateAllPrices(items []LineItem, discount, markup decimal.Decimal) error {
	if err := validateDiscountMarkup(discount, markup); err != nil {
		return err
	}
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return annotateItem(err, i)
		}
	}
	for i := range items {
		if items[i].IsGroupHeader() {
			items[i].ClientPrice = decimal.Zero
			items[i].LineTotal = decimal.Zero
			continue
		}
		clientPrice, lineTotal := linePrice(items[i], discount, markup)
		items[i].ClientPrice = clientPrice
		items[i].LineTotal = lineTotal
	}
	return nil
}

// ComputeQuoteTotals aggregates the products of a quote. Supplier and
// discounted sums are rounded once at the end; the final total is the sum
// of the already rounded line totals, so it always matches the printed rows.
func ComputeQuoteTotals(items []LineItem, discount, markup, vat decimal.Decimal) (Totals, error) {
	if err := validateDiscountMarkup(discount, markup); err != nil {
		return Totals{}, err
	}
	if err := ValidatePercent("vat", vat); err != nil {
		return Totals{}, err
	}

	discountFactor := one.Sub(discount.Div(hundred))

	var t Totals
	supplier := decimal.Zero
	discounted := decimal.Zero
	final := decimal.Zero

	for i, item := range items {
		if item.IsGroupHeader() {
			continue
		}
		if err := item.Validate(); err != nil {
			return Totals{}, annotateItem(err, i)
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		supplierAmount := item.SupplierPrice.Mul(qty)
		supplier = supplier.Add(supplierAmount)
		discounted = discounted.Add(supplierAmount.Mul(discountFactor))

		_, lineTotal := linePrice(item, discount, markup)
		final = final.Add(lineTotal)
		t.ItemCount++
	}

	t.SupplierTotal = Round2(supplier)
	t.DiscountedTotal = Round2(discounted)
	t.FinalTotal = Round2(final)
	t.VATAmount = inclusiveVAT(t.FinalTotal, vat)

	t.Margin = t.FinalTotal.Sub(t.DiscountedTotal)
	t.MarginPercent = percentRatioOrZero(t.Margin, t.FinalTotal)

	t.ClientSavings = t.SupplierTotal.Sub(t.FinalTotal)
	t.ClientSavingsPercent = percentRatioOrZero(t.ClientSavings, t.SupplierTotal)

	return t, nil
}

func annotateItem(err error, index int) error {
	if e, ok := err.(*Error); ok {
		e.Field = itemField(index, e.Field)
		return e
	}
	return err
}

func itemField(index int, field string) string {
	name := "items[" + strconv.Itoa(index) + "]"
	if field != "" {
		name += "." + field
	}
	return name
}
