package services

import (
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// ErrQuoteNotFound is wrapped by store errors for an unknown quote id.
var ErrQuoteNotFound = errors.New("quote not found")

// QuoteSummary is one line of the archive listing.
type QuoteSummary struct {
	ID          string          `json:"id"`
	Number      string          `json:"number"`
	Date        string          `json:"date"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Updated     time.Time       `json:"updated"`
}

func findQuoteRecord(app core.App, id string) (*core.Record, error) {
	record, err := app.FindRecordById("quotes", id)
	if err != nil {
		return nil, Resource("quote "+quoteValue(id), errors.Join(ErrQuoteNotFound, err))
	}
	return record, nil
}

// SaveQuoteRecord stores q in the archive and returns its record id. An
// empty id creates a new record; otherwise the record and all of its items
// are replaced in one transaction. Prices are recomputed before writing.
func SaveQuoteRecord(app core.App, id string, q *Quote) (string, error) {
	if err := q.Validate(); err != nil {
		return "", withOp(err, "save quote record")
	}
	if err := q.Recalculate(); err != nil {
		return "", withOp(err, "save quote record")
	}
	totals, err := q.Totals()
	if err != nil {
		return "", withOp(err, "save quote record")
	}

	savedID := id
	err = app.RunInTransaction(func(txApp core.App) error {
		var record *core.Record
		if id == "" {
			col, err := txApp.FindCollectionByNameOrId("quotes")
			if err != nil {
				return Resource("quotes collection", err)
			}
			record = core.NewRecord(col)
		} else {
			var err error
			if record, err = findQuoteRecord(txApp, id); err != nil {
				return err
			}
		}

		setQuoteFields(record, q, totals)
		if err := txApp.Save(record); err != nil {
			return Resource("save quote", err)
		}
		savedID = record.Id

		existing, err := txApp.FindRecordsByFilter("quote_items", "quote = {:quoteId}", "", 0, 0,
			map[string]any{"quoteId": record.Id})
		if err != nil {
			return Resource("list quote items", err)
		}
		for _, r := range existing {
			if err := txApp.Delete(r); err != nil {
				return Resource("delete quote item", err)
			}
		}

		itemsCol, err := txApp.FindCollectionByNameOrId("quote_items")
		if err != nil {
			return Resource("quote_items collection", err)
		}
		for i, item := range q.Items {
			r := core.NewRecord(itemsCol)
			setItemFields(r, record.Id, i, item)
			if err := txApp.Save(r); err != nil {
				return Resource("save quote item", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", withOp(err, "save quote record")
	}

	log.Printf("quote_store: saved %s (%s, %d items)", q.Number, savedID, len(q.Items))
	return savedID, nil
}

func setQuoteFields(record *core.Record, q *Quote, totals Totals) {
	date := ""
	if q.Date != nil {
		date = q.Date.Format(DateLayout)
	}
	record.Set("number", q.Number)
	record.Set("date", date)
	record.Set("discount_percent", q.DiscountPercent.String())
	record.Set("markup_percent", q.MarkupPercent.String())
	record.Set("vat_percent", q.VATPercent.String())
	record.Set("delivery_terms", q.DeliveryTerms)
	record.Set("self_pickup_warehouse", q.SelfPickupWarehouse)
	record.Set("warranty", q.Warranty)
	record.Set("delivery_time", q.DeliveryTime)
	record.Set("include_delivery", q.IncludeDelivery)
	record.Set("delivery_cost", q.DeliveryCost.String())
	record.Set("default_unit", q.DefaultUnit)
	record.Set("total_amount", totals.FinalTotal.StringFixed(2))
	record.Set("vat_amount", totals.VATAmount.StringFixed(2))
	record.Set("item_count", totals.ItemCount)
}

func setItemFields(r *core.Record, quoteID string, order int, item LineItem) {
	markup := ""
	if item.Markup.Valid {
		markup = item.Markup.Decimal.String()
	}
	r.Set("quote", quoteID)
	r.Set("sort_order", order)
	r.Set("kind", item.Kind.String())
	r.Set("article", item.Article)
	r.Set("name", item.Name)
	r.Set("quantity", item.Quantity)
	r.Set("unit", item.Unit)
	r.Set("supplier_price", item.SupplierPrice.String())
	r.Set("markup", markup)
	r.Set("client_price", item.ClientPrice.StringFixed(2))
	r.Set("line_total", item.LineTotal.StringFixed(2))
}

// LoadQuoteRecord reads a quote and its items from the archive with the
// same tolerance as LoadQuote.
func LoadQuoteRecord(app core.App, id string, opts LoadOptions) (*Quote, LoadReport, error) {
	var report LoadReport

	record, err := findQuoteRecord(app, id)
	if err != nil {
		return nil, report, withOp(err, "load quote record")
	}

	q := &Quote{
		Number:              record.GetString("number"),
		DeliveryTerms:       record.GetString("delivery_terms"),
		SelfPickupWarehouse: record.GetString("self_pickup_warehouse"),
		Warranty:            record.GetString("warranty"),
		DeliveryTime:        record.GetString("delivery_time"),
		IncludeDelivery:     record.GetBool("include_delivery"),
		DefaultUnit:         record.GetString("default_unit"),
	}
	if q.DefaultUnit == "" {
		q.DefaultUnit = DefaultUnit
	}

	if date := strings.TrimSpace(record.GetString("date")); date != "" {
		if t, err := time.ParseInLocation(DateLayout, date, time.Local); err == nil {
			q.Date = &t
		} else {
			now := truncateDay(opts.now())
			log.Printf("quote_store: %s: invalid date %q, using %s", id, date, now.Format(DateLayout))
			q.Date = &now
			report.DateReplaced = true
		}
	}

	for _, f := range []struct {
		field    string
		fallback decimal.Decimal
		dst      *decimal.Decimal
	}{
		{"discount_percent", decimal.Zero, &q.DiscountPercent},
		{"markup_percent", decimal.Zero, &q.MarkupPercent},
		{"vat_percent", decimal.NewFromInt(20), &q.VATPercent},
		{"delivery_cost", decimal.Zero, &q.DeliveryCost},
	} {
		*f.dst = f.fallback
		if s := record.GetString(f.field); s != "" {
			d, err := ParseDecimal(f.field, s)
			if err != nil {
				return nil, report, withOp(err, "load quote record")
			}
			*f.dst = d
		}
	}
	if err := q.Validate(); err != nil {
		return nil, report, withOp(err, "load quote record")
	}

	items, err := app.FindRecordsByFilter("quote_items", "quote = {:quoteId}", "sort_order", 0, 0,
		map[string]any{"quoteId": id})
	if err != nil {
		return nil, report, Resource("list quote items", err).WithOp("load quote record")
	}
	for i, r := range items {
		item, err := itemFromRecord(r)
		if err == nil {
			err = item.Validate()
		}
		if err != nil {
			sk := skippedFromError(i+1, err)
			log.Printf("quote_store: %s: item %d skipped: %s: %s", id, sk.Row, sk.Field, sk.Reason)
			report.Skipped = append(report.Skipped, sk)
			continue
		}
		q.Items = append(q.Items, item.normalized())
	}

	if err := q.Recalculate(); err != nil {
		return nil, report, withOp(err, "load quote record")
	}
	return q, report, nil
}

func itemFromRecord(r *core.Record) (LineItem, error) {
	kind, err := ParseItemKind(r.GetString("kind"))
	if err != nil {
		return LineItem{}, err
	}
	if kind == KindGroupHeader {
		return NewGroupHeader(r.GetString("name")), nil
	}

	price := decimal.Zero
	if s := r.GetString("supplier_price"); s != "" {
		if price, err = ParseDecimal("supplier_price", s); err != nil {
			return LineItem{}, err
		}
	}
	item := NewProduct(r.GetString("article"), r.GetString("name"), r.GetInt("quantity"), r.GetString("unit"), price)
	if s := r.GetString("markup"); s != "" {
		m, err := ParseDecimal("markup", s)
		if err != nil {
			return LineItem{}, err
		}
		item = item.WithMarkup(m)
	}
	return item, nil
}

// ListQuoteSummaries returns the archive, newest number first.
func ListQuoteSummaries(app core.App) ([]QuoteSummary, error) {
	records, err := app.FindAllRecords("quotes")
	if err != nil {
		return nil, Resource("list quotes", err).WithOp("list quotes")
	}

	summaries := make([]QuoteSummary, 0, len(records))
	for _, r := range records {
		total, err := decimal.NewFromString(r.GetString("total_amount"))
		if err != nil {
			total = decimal.Zero
		}
		summaries = append(summaries, QuoteSummary{
			ID:          r.Id,
			Number:      r.GetString("number"),
			Date:        r.GetString("date"),
			ItemCount:   r.GetInt("item_count"),
			TotalAmount: total,
			Updated:     r.GetDateTime("updated").Time(),
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Number > summaries[j].Number
	})
	return summaries, nil
}

// DeleteQuoteRecord removes a quote; its items go with it.
func DeleteQuoteRecord(app core.App, id string) error {
	record, err := findQuoteRecord(app, id)
	if err != nil {
		return withOp(err, "delete quote")
	}
	if err := app.Delete(record); err != nil {
		return Resource("delete quote", err).WithOp("delete quote")
	}
	log.Printf("quote_store: deleted %s (%s)", record.GetString("number"), id)
	return nil
}

// FindQuoteIDByNumber returns the id of the archived quote with that
// number, or "" when there is none.
func FindQuoteIDByNumber(app core.App, number string) (string, error) {
	records, err := app.FindRecordsByFilter("quotes", "number = {:number}", "", 1, 0,
		map[string]any{"number": number})
	if err != nil {
		return "", Resource("find quote by number", err).WithOp("find quote")
	}
	if len(records) == 0 {
		return "", nil
	}
	return records[0].Id, nil
}
