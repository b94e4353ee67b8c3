package services

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"quotedesk/config"
)

// Quote is the aggregate root of a commercial offer. Items keep their
// order; group headers in between only structure the printed table.
type Quote struct {
	Number string
	// Date is nil when the offer carries no date.
	Date *time.Time

	DiscountPercent decimal.Decimal
	MarkupPercent   decimal.Decimal
	VATPercent      decimal.Decimal

	DeliveryTerms       string
	SelfPickupWarehouse string
	Warranty            string
	DeliveryTime        string
	IncludeDelivery     bool
	DeliveryCost        decimal.Decimal

	// DefaultUnit fills product rows added without a unit.
	DefaultUnit string

	Items []LineItem
}

// NewQuote starts an empty quote dated today with the configured parameters.
func NewQuote(number string, defaults config.QuoteDefaults) *Quote {
	today := truncateDay(time.Now())
	unit := defaults.Unit
	if unit == "" {
		unit = DefaultUnit
	}
	return &Quote{
		Number:          number,
		Date:            &today,
		DiscountPercent: defaults.DiscountPercent,
		MarkupPercent:   defaults.MarkupPercent,
		VATPercent:      defaults.VATPercent,
		DeliveryCost:    decimal.Zero,
		DefaultUnit:     unit,
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (q *Quote) prepare(item LineItem) (LineItem, error) {
	if !item.IsGroupHeader() && item.Unit == "" && q.DefaultUnit != "" {
		item.Unit = q.DefaultUnit
	}
	item = item.normalized()
	if err := item.Validate(); err != nil {
		return LineItem{}, err
	}
	if err := ApplyLinePrice(&item, q.DiscountPercent, q.MarkupPercent); err != nil {
		return LineItem{}, err
	}
	return item, nil
}

func (q *Quote) checkIndex(op string, index int) error {
	if index < 0 || index >= len(q.Items) {
		return Validationf("item index %d out of range [0, %d)", index, len(q.Items)).WithOp(op)
	}
	return nil
}

// AddItem prices the item and appends it.
func (q *Quote) AddItem(item LineItem) error {
	priced, err := q.prepare(item)
	if err != nil {
		return withOp(err, "add item")
	}
	q.Items = append(q.Items, priced)
	return nil
}

// InsertItem prices the item and inserts it before index. An index equal
// to the item count appends.
func (q *Quote) InsertItem(index int, item LineItem) error {
	if index < 0 || index > len(q.Items) {
		return Validationf("item index %d out of range [0, %d]", index, len(q.Items)).WithOp("insert item")
	}
	priced, err := q.prepare(item)
	if err != nil {
		return withOp(err, "insert item")
	}
	q.Items = slices.Insert(q.Items, index, priced)
	return nil
}

// UpdateItem replaces the item at index. A rejected item leaves the quote as it was.
func (q *Quote) UpdateItem(index int, item LineItem) error {
	if err := q.checkIndex("update item", index); err != nil {
		return err
	}
	priced, err := q.prepare(item)
	if err != nil {
		return withOp(err, "update item")
	}
	q.Items[index] = priced
	return nil
}

// RemoveItem deletes the item at index.
func (q *Quote) RemoveItem(index int) error {
	if err := q.checkIndex("remove item", index); err != nil {
		return err
	}
	q.Items = slices.Delete(q.Items, index, index+1)
	return nil
}

// MoveItem moves the item at from so that it ends up at position to.
func (q *Quote) MoveItem(from, to int) error {
	if err := q.checkIndex("move item", from); err != nil {
		return err
	}
	if err := q.checkIndex("move item", to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	item := q.Items[from]
	q.Items = slices.Delete(q.Items, from, from+1)
	q.Items = slices.Insert(q.Items, to, item)
	return nil
}

// SetParameters changes discount, markup and VAT and reprices every line.
// Nothing changes when any of the three is out of range.
func (q *Quote) SetParameters(discount, markup, vat decimal.Decimal) error {
	if err := validateDiscountMarkup(discount, markup); err != nil {
		return withOp(err, "set parameters")
	}
	if err := ValidatePercent("vat", vat); err != nil {
		return withOp(err, "set parameters")
	}
	if err := UpdateAllPrices(q.Items, discount, markup); err != nil {
		return withOp(err, "set parameters")
	}
	q.DiscountPercent = discount
	q.MarkupPercent = markup
	q.VATPercent = vat
	return nil
}

// Recalculate refreshes the cached prices of every line.
func (q *Quote) Recalculate() error {
	return withOp(UpdateAllPrices(q.Items, q.DiscountPercent, q.MarkupPercent), "recalculate")
}

// Clear removes all items.
func (q *Quote) Clear() {
	q.Items = nil
}

// Validate checks parameter ranges, the delivery cost and every item.
func (q *Quote) Validate() error {
	if err := validateDiscountMarkup(q.DiscountPercent, q.MarkupPercent); err != nil {
		return err
	}
	if err := ValidatePercent("vat", q.VATPercent); err != nil {
		return err
	}
	if q.DeliveryCost.IsNegative() {
		return Validationf("must not be negative, got %s", q.DeliveryCost.String()).WithField("delivery_cost")
	}
	for i, item := range q.Items {
		if err := item.Validate(); err != nil {
			return annotateItem(err, i)
		}
	}
	return nil
}

// Totals aggregates the quote with its own parameters.
func (q *Quote) Totals() (Totals, error) {
	return ComputeQuoteTotals(q.Items, q.DiscountPercent, q.MarkupPercent, q.VATPercent)
}

// TotalAmount is the sum of the cached product line totals.
func (q *Quote) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range q.Items {
		if item.IsGroupHeader() {
			continue
		}
		total = total.Add(item.LineTotal)
	}
	return Round2(total)
}

// VATAmount is the VAT contained in TotalAmount.
func (q *Quote) VATAmount() decimal.Decimal {
	return inclusiveVAT(q.TotalAmount(), q.VATPercent)
}

// ProductCount returns the number of non-header items.
func (q *Quote) ProductCount() int {
	n := 0
	for _, item := range q.Items {
		if !item.IsGroupHeader() {
			n++
		}
	}
	return n
}

// AppendImported adds the normalised rows of result, repricing them with
// the quote parameters. Rows that fail validation are returned as skips
// numbered by their source row.
func (q *Quote) AppendImported(result ImportResult) []SkippedRow {
	var skipped []SkippedRow
	for i, item := range result.Items {
		if err := q.AddItem(item); err != nil {
			src := result.source(i)
			sk := skippedFromError(src.Row, err)
			sk.Page = src.Page
			skipped = append(skipped, sk)
		}
	}
	return skipped
}

func withOp(err error, op string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok && e.Op == "" {
		e.Op = op
	}
	return err
}
