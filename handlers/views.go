package handlers

import (
	"github.com/shopspring/decimal"

	"quotedesk/services"
)

// itemView is a line item as sent to the browser. Amounts are exact
// decimal strings; the *_text fields are formatted for display.
type itemView struct {
	Index         int     `json:"index"`
	Kind          string  `json:"kind"`
	Article       string  `json:"article"`
	Name          string  `json:"name"`
	Quantity      int     `json:"quantity"`
	Unit          string  `json:"unit"`
	SupplierPrice string  `json:"supplier_price"`
	Markup        *string `json:"markup"`
	ClientPrice   string  `json:"client_price"`
	LineTotal     string  `json:"line_total"`
	LineTotalText string  `json:"line_total_text"`
}

type totalsView struct {
	ItemCount            int    `json:"item_count"`
	SupplierTotal        string `json:"supplier_total"`
	DiscountedTotal      string `json:"discounted_total"`
	FinalTotal           string `json:"final_total"`
	FinalTotalText       string `json:"final_total_text"`
	VATAmount            string `json:"vat_amount"`
	Margin               string `json:"margin"`
	MarginPercent        string `json:"margin_percent"`
	ClientSavings        string `json:"client_savings"`
	ClientSavingsPercent string `json:"client_savings_percent"`
}

type quoteView struct {
	ID                  string     `json:"id"`
	Number              string     `json:"number"`
	Date                string     `json:"date"`
	DiscountPercent     string     `json:"discount_from_supplier"`
	MarkupPercent       string     `json:"markup_for_client"`
	VATPercent          string     `json:"vat"`
	DeliveryTerms       string     `json:"delivery_terms"`
	SelfPickupWarehouse string     `json:"self_pickup_warehouse"`
	Warranty            string     `json:"warranty"`
	DeliveryTime        string     `json:"delivery_time"`
	IncludeDelivery     bool       `json:"include_delivery"`
	DeliveryCost        string     `json:"delivery_cost"`
	Items               []itemView `json:"items"`
	Totals              totalsView `json:"totals"`

	// Skipped lists stored items that could not be read back.
	Skipped []services.SkippedRow `json:"skipped,omitempty"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func newQuoteView(id string, q *services.Quote, report services.LoadReport) (quoteView, error) {
	totals, err := q.Totals()
	if err != nil {
		return quoteView{}, err
	}

	v := quoteView{
		ID:                  id,
		Number:              q.Number,
		DiscountPercent:     q.DiscountPercent.String(),
		MarkupPercent:       q.MarkupPercent.String(),
		VATPercent:          q.VATPercent.String(),
		DeliveryTerms:       q.DeliveryTerms,
		SelfPickupWarehouse: q.SelfPickupWarehouse,
		Warranty:            q.Warranty,
		DeliveryTime:        q.DeliveryTime,
		IncludeDelivery:     q.IncludeDelivery,
		DeliveryCost:        money(q.DeliveryCost),
		Items:               make([]itemView, 0, len(q.Items)),
		Totals: totalsView{
			ItemCount:            totals.ItemCount,
			SupplierTotal:        money(totals.SupplierTotal),
			DiscountedTotal:      money(totals.DiscountedTotal),
			FinalTotal:           money(totals.FinalTotal),
			FinalTotalText:       services.FormatRUB(totals.FinalTotal),
			VATAmount:            money(totals.VATAmount),
			Margin:               money(totals.Margin),
			MarginPercent:        totals.MarginPercent.StringFixed(1),
			ClientSavings:        money(totals.ClientSavings),
			ClientSavingsPercent: totals.ClientSavingsPercent.StringFixed(1),
		},
		Skipped: report.Skipped,
	}
	if q.Date != nil {
		v.Date = q.Date.Format(services.DateLayout)
	}

	for i, item := range q.Items {
		iv := itemView{
			Index:   i,
			Kind:    item.Kind.String(),
			Article: item.Article,
			Name:    item.Name,
		}
		if !item.IsGroupHeader() {
			iv.Quantity = item.Quantity
			iv.Unit = item.Unit
			iv.SupplierPrice = item.SupplierPrice.String()
			iv.ClientPrice = money(item.ClientPrice)
			iv.LineTotal = money(item.LineTotal)
			iv.LineTotalText = services.FormatRUB(item.LineTotal)
			if item.Markup.Valid {
				m := item.Markup.Decimal.String()
				iv.Markup = &m
			}
		}
		v.Items = append(v.Items, iv)
	}
	return v, nil
}
