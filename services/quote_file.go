package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format of quote files and documents.
const DateLayout = "02.01.2006"

type quoteFileProduct struct {
	Article       string  `json:"article"`
	Name          string  `json:"name"`
	Quantity      int     `json:"quantity"`
	Unit          string  `json:"unit"`
	SupplierPrice string  `json:"supplier_price"`
	Markup        *string `json:"markup"`
	ClientPrice   string  `json:"client_price"`
	TotalPrice    string  `json:"total_price"`
	IsGroupHeader bool    `json:"is_group_header"`
}

type quoteFile struct {
	Number              string             `json:"number"`
	Date                *string            `json:"date"`
	DiscountPercent     string             `json:"discount_from_supplier"`
	MarkupPercent       string             `json:"markup_for_client"`
	VATPercent          string             `json:"vat"`
	DeliveryTerms       string             `json:"delivery_terms"`
	SelfPickupWarehouse string             `json:"self_pickup_warehouse"`
	Warranty            string             `json:"warranty"`
	DeliveryTime        string             `json:"delivery_time"`
	IncludeDelivery     bool               `json:"include_delivery"`
	DeliveryCost        string             `json:"delivery_cost"`
	Products            []quoteFileProduct `json:"products"`
}

// SaveQuote writes q as an indented UTF-8 JSON document. Decimals are
// written as exact strings.
func SaveQuote(w io.Writer, q *Quote) error {
	doc := quoteFile{
		Number:              q.Number,
		DiscountPercent:     q.DiscountPercent.String(),
		MarkupPercent:       q.MarkupPercent.String(),
		VATPercent:          q.VATPercent.String(),
		DeliveryTerms:       q.DeliveryTerms,
		SelfPickupWarehouse: q.SelfPickupWarehouse,
		Warranty:            q.Warranty,
		DeliveryTime:        q.DeliveryTime,
		IncludeDelivery:     q.IncludeDelivery,
		DeliveryCost:        q.DeliveryCost.String(),
		Products:            make([]quoteFileProduct, 0, len(q.Items)),
	}
	if q.Date != nil {
		s := q.Date.Format(DateLayout)
		doc.Date = &s
	}
	for _, item := range q.Items {
		p := quoteFileProduct{
			Article:       item.Article,
			Name:          item.Name,
			Quantity:      item.Quantity,
			Unit:          item.Unit,
			SupplierPrice: item.SupplierPrice.String(),
			ClientPrice:   item.ClientPrice.StringFixed(2),
			TotalPrice:    item.LineTotal.StringFixed(2),
			IsGroupHeader: item.IsGroupHeader(),
		}
		if item.Markup.Valid {
			s := item.Markup.Decimal.String()
			p.Markup = &s
		}
		doc.Products = append(doc.Products, p)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return Resource("write quote", err).WithOp("save quote")
	}
	return nil
}

// LoadOptions control the tolerant parts of loading.
type LoadOptions struct {
	// Now supplies the fallback date for an unreadable date. Defaults to time.Now.
	Now func() time.Time
	// DefaultUnit is set on the loaded quote.
	DefaultUnit string
}

func (o LoadOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// LoadReport lists what a load had to skip or replace.
type LoadReport struct {
	Skipped      []SkippedRow `json:"skipped"`
	DateReplaced bool         `json:"date_replaced"`
}

// SkippedCount is the number of items left out of the loaded quote.
func (r LoadReport) SkippedCount() int {
	return len(r.Skipped)
}

// quoteHeader is the tolerant view of a quote file: products are decoded
// one at a time so a bad item does not fail the document.
type quoteHeader struct {
	Number              string            `json:"number"`
	Date                json.RawMessage   `json:"date"`
	DiscountPercent     json.RawMessage   `json:"discount_from_supplier"`
	MarkupPercent       json.RawMessage   `json:"markup_for_client"`
	VATPercent          json.RawMessage   `json:"vat"`
	DeliveryTerms       string            `json:"delivery_terms"`
	SelfPickupWarehouse string            `json:"self_pickup_warehouse"`
	Warranty            string            `json:"warranty"`
	DeliveryTime        string            `json:"delivery_time"`
	IncludeDelivery     bool              `json:"include_delivery"`
	DeliveryCost        json.RawMessage   `json:"delivery_cost"`
	Products            []json.RawMessage `json:"products"`
}

type productFields struct {
	Article       string          `json:"article"`
	Name          string          `json:"name"`
	Quantity      json.RawMessage `json:"quantity"`
	Unit          string          `json:"unit"`
	SupplierPrice json.RawMessage `json:"supplier_price"`
	Markup        json.RawMessage `json:"markup"`
	IsGroupHeader bool            `json:"is_group_header"`
}

// LoadQuote reads a quote document. An unreadable date falls back to
// opts.Now and an unreadable item is skipped; both are reported. A bad
// header value fails the whole load. Cached prices in the document are
// ignored and recomputed.
func LoadQuote(r io.Reader, opts LoadOptions) (*Quote, LoadReport, error) {
	var report LoadReport

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, report, Resource("cannot read quote", err).WithOp("load quote")
	}
	var h quoteHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, report, Parse("invalid quote document", err).WithOp("load quote")
	}

	q := &Quote{
		Number:              h.Number,
		DeliveryTerms:       h.DeliveryTerms,
		SelfPickupWarehouse: h.SelfPickupWarehouse,
		Warranty:            h.Warranty,
		DeliveryTime:        h.DeliveryTime,
		IncludeDelivery:     h.IncludeDelivery,
		DefaultUnit:         opts.DefaultUnit,
	}
	if q.DefaultUnit == "" {
		q.DefaultUnit = DefaultUnit
	}

	q.Date, report.DateReplaced = parseQuoteDate(h.Date, opts)

	headerDecimals := []struct {
		field    string
		raw      json.RawMessage
		fallback decimal.Decimal
		dst      *decimal.Decimal
	}{
		{"discount_from_supplier", h.DiscountPercent, decimal.Zero, &q.DiscountPercent},
		{"markup_for_client", h.MarkupPercent, decimal.Zero, &q.MarkupPercent},
		{"vat", h.VATPercent, decimal.NewFromInt(20), &q.VATPercent},
		{"delivery_cost", h.DeliveryCost, decimal.Zero, &q.DeliveryCost},
	}
	for _, hd := range headerDecimals {
		d, err := jsonDecimal(hd.field, hd.raw, hd.fallback)
		if err != nil {
			return nil, report, withOp(err, "load quote")
		}
		*hd.dst = d
	}
	// Items are not parsed yet, so this checks the header only.
	if err := q.Validate(); err != nil {
		return nil, report, withOp(err, "load quote")
	}

	for i, raw := range h.Products {
		item, err := decodeQuoteItem(raw)
		if err == nil {
			err = item.Validate()
		}
		if err != nil {
			sk := skippedFromError(i+1, err)
			log.Printf("quote_file: item %d skipped: %s: %s", sk.Row, sk.Field, sk.Reason)
			report.Skipped = append(report.Skipped, sk)
			continue
		}
		q.Items = append(q.Items, item.normalized())
	}

	if err := q.Recalculate(); err != nil {
		return nil, report, withOp(err, "load quote")
	}
	return q, report, nil
}

func parseQuoteDate(raw json.RawMessage, opts LoadOptions) (*time.Time, bool) {
	if isJSONNull(raw) {
		return nil, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return nil, false
		}
		if t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local); err == nil {
			return &t, false
		}
	}
	now := truncateDay(opts.now())
	log.Printf("quote_file: invalid date %s, using %s", string(raw), now.Format(DateLayout))
	return &now, true
}

func decodeQuoteItem(raw json.RawMessage) (LineItem, error) {
	var p productFields
	if err := json.Unmarshal(raw, &p); err != nil {
		return LineItem{}, Parse("invalid item", err)
	}
	if p.IsGroupHeader {
		return NewGroupHeader(p.Name), nil
	}

	qty, err := jsonQuantity(p.Quantity)
	if err != nil {
		return LineItem{}, err
	}
	price, err := jsonDecimal("supplier_price", p.SupplierPrice, decimal.Zero)
	if err != nil {
		return LineItem{}, err
	}
	item := NewProduct(p.Article, p.Name, qty, p.Unit, price)
	if !isJSONNull(p.Markup) {
		m, err := jsonDecimal("markup", p.Markup, decimal.Zero)
		if err != nil {
			return LineItem{}, err
		}
		item = item.WithMarkup(m)
	}
	return item, nil
}

func isJSONNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// jsonText returns the text of a JSON string or number.
func jsonText(raw json.RawMessage) (string, error) {
	t := bytes.TrimSpace(raw)
	if len(t) > 0 && t[0] == '"' {
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(t, &n); err != nil {
		return "", errors.New("expected a string or a number")
	}
	return n.String(), nil
}

// jsonDecimal reads a decimal stored as a JSON string or number. Absent
// and null values take the fallback.
func jsonDecimal(field string, raw json.RawMessage, fallback decimal.Decimal) (decimal.Decimal, error) {
	if isJSONNull(raw) {
		return fallback, nil
	}
	s, err := jsonText(raw)
	if err != nil {
		return decimal.Zero, Parse("not a decimal: "+quoteValue(string(raw)), err).WithField(field)
	}
	return ParseDecimal(field, s)
}

func jsonQuantity(raw json.RawMessage) (int, error) {
	if isJSONNull(raw) {
		return 0, nil
	}
	s, err := jsonText(raw)
	if err != nil {
		return 0, Parse("not a number: "+quoteValue(string(raw)), err).WithField(string(FieldQuantity))
	}
	return ParseQuantity(s)
}

