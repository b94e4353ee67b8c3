package services

import (
	"log"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"quotedesk/config"
)

type seedItem struct {
	article string
	name    string
	qty     int
	unit    string
	price   string
}

// seedItems is a small two-group offer. An empty article with no price
// marks a group header.
var seedItems = []seedItem{
	{name: "Система видеонаблюдения"},
	{"DS-2CD2043G2-I", GroupIndent + "IP-камера 4 Мп, объектив 2.8 мм", 8, "шт.", "12500"},
	{"DS-7608NI-K2", GroupIndent + "Видеорегистратор сетевой 8-канальный", 1, "шт.", "18900"},
	{"WD40PURX", GroupIndent + "Жёсткий диск 4 ТБ", 2, "шт.", "9870.40"},
	{name: "Система контроля доступа"},
	{"PW-560", GroupIndent + "Контроллер доступа сетевой", 2, "шт.", "9450.50"},
	{"UTP-4x2x0.5", GroupIndent + "Кабель UTP 4x2x0,5 cat.5e", 305, "м", "42.30"},
}

// SeedSampleQuote inserts a sample quote when the archive is empty so a new
// installation has something to open and export.
func SeedSampleQuote(app core.App, cfg config.Config) error {
	existing, err := app.FindAllRecords("quotes")
	if err != nil {
		return Resource("query quotes", err).WithOp("seed")
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: quotes collection is empty – inserting sample quote …")

	number, err := NextQuoteNumber(app, cfg.NumberBase)
	if err != nil {
		return withOp(err, "seed")
	}
	q := NewQuote(number, cfg.Quote)
	q.DeliveryTime = cfg.Terms.DeliveryTime
	q.Warranty = cfg.Terms.Warranty
	q.SelfPickupWarehouse = cfg.Terms.SelfPickupWarehouse
	if err := q.SetParameters(decimal.NewFromInt(10), decimal.NewFromInt(25), cfg.Quote.VATPercent); err != nil {
		return withOp(err, "seed")
	}

	for _, d := range seedItems {
		item := NewGroupHeader(d.name)
		if d.price != "" {
			item = NewProduct(d.article, d.name, d.qty, d.unit, decimal.RequireFromString(d.price))
		}
		if err := q.AddItem(item); err != nil {
			return withOp(err, "seed")
		}
	}

	id, err := SaveQuoteRecord(app, "", q)
	if err != nil {
		return withOp(err, "seed")
	}
	log.Printf("seed: created quote %s (%s) with %d items\n", q.Number, id, len(q.Items))
	return nil
}
