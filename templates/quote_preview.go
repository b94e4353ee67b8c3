// Package templates renders the HTML pages of the quote desk.
package templates

import (
	"fmt"

	"quotedesk/config"
	"quotedesk/services"
)

//go:generate templ generate

// previewCSS is the page stylesheet. Colours come from a validated style,
// so they are plain hex values.
func previewCSS(style config.ExportStyle) string {
	return fmt.Sprintf(`body{font-family:sans-serif;font-size:%.0fpt;margin:%.0fmm %.0fmm}`+
		`table{border-collapse:collapse;width:100%%}td,th{border:1px solid #000;padding:4px}`+
		`th{background:%s;color:%s}tr.group td{background:%s;font-weight:bold;text-align:center}`+
		`tr.alt td{background:%s}td.num{text-align:right;white-space:nowrap}`,
		style.FontSize, style.MarginTop, style.MarginLeft,
		style.HeaderColor, style.HeaderTextColor, style.GroupHeaderColor, style.AlternateRowColor)
}

type term struct {
	label, value string
}

// previewTerms lists the filled-in delivery and warranty terms.
func previewTerms(data services.ExportData) []term {
	var terms []term
	for _, t := range []term{
		{"Срок поставки", data.DeliveryTime},
		{"Склад самовывоза", data.SelfPickupWarehouse},
		{"Гарантия", data.Warranty},
		{"Условия поставки", data.DeliveryTerms},
	} {
		if t.value != "" {
			terms = append(terms, t)
		}
	}
	return terms
}
