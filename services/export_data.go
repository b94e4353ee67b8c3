package services

import (
	"github.com/shopspring/decimal"

	"quotedesk/config"
)

// ExportRow is one table row of an exported quote. Group headers carry only
// Name and have Number 0; products are numbered from 1.
type ExportRow struct {
	IsGroupHeader bool
	Number        int
	Article       string
	Name          string
	Quantity      int
	Unit          string
	ClientPrice   decimal.Decimal
	LineTotal     decimal.Decimal
}

// ExportData holds everything a document renderer needs. All amounts are
// rounded to kopecks.
type ExportData struct {
	Title       string
	CompanyName string
	Number      string
	Date        string
	Rows        []ExportRow
	ItemCount   int

	Total         decimal.Decimal
	VATPercent    decimal.Decimal
	VATAmount     decimal.Decimal
	AmountInWords string

	DiscountPercent decimal.Decimal
	MarkupPercent   decimal.Decimal

	DeliveryTime        string
	SelfPickupWarehouse string
	Warranty            string
	DeliveryTerms       string

	// IncludeDelivery adds a delivery line below the totals. The delivery
	// cost is quoted separately and is not part of Total.
	IncludeDelivery bool
	DeliveryCost    decimal.Decimal
}

// BuildExportData recalculates q and collects the export handoff. Empty
// terms are filled from the configured defaults.
func BuildExportData(q *Quote, terms config.TermsDefaults) (ExportData, error) {
	if err := q.Validate(); err != nil {
		return ExportData{}, withOp(err, "build export data")
	}
	if err := q.Recalculate(); err != nil {
		return ExportData{}, withOp(err, "build export data")
	}
	totals, err := q.Totals()
	if err != nil {
		return ExportData{}, withOp(err, "build export data")
	}

	data := ExportData{
		Title:               config.DefaultExportStyle().Title,
		CompanyName:         terms.CompanyName,
		Number:              q.Number,
		ItemCount:           totals.ItemCount,
		Total:               totals.FinalTotal,
		VATPercent:          q.VATPercent,
		VATAmount:           totals.VATAmount,
		AmountInWords:       AmountInWords(totals.FinalTotal),
		DiscountPercent:     q.DiscountPercent,
		MarkupPercent:       q.MarkupPercent,
		DeliveryTime:        orDefault(q.DeliveryTime, terms.DeliveryTime),
		SelfPickupWarehouse: orDefault(q.SelfPickupWarehouse, terms.SelfPickupWarehouse),
		Warranty:            orDefault(q.Warranty, terms.Warranty),
		DeliveryTerms:       q.DeliveryTerms,
		IncludeDelivery:     q.IncludeDelivery,
		DeliveryCost:        Round2(q.DeliveryCost),
	}
	if q.Date != nil {
		data.Date = q.Date.Format(DateLayout)
	}

	number := 0
	for _, item := range q.Items {
		if item.IsGroupHeader() {
			data.Rows = append(data.Rows, ExportRow{IsGroupHeader: true, Name: item.Name})
			continue
		}
		number++
		data.Rows = append(data.Rows, ExportRow{
			Number:      number,
			Article:     item.Article,
			Name:        item.Name,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
			ClientPrice: item.ClientPrice,
			LineTotal:   item.LineTotal,
		})
	}
	return data, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
