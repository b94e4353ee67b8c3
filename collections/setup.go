package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// Setup programmatically creates/ensures the quotes and quote_items
// collections exist. Money and percentages are stored as exact decimal text;
// number fields are used only for counts and ordering.
func Setup(app *pocketbase.PocketBase) {
	quotes := ensureCollection(app, "quotes", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "number", Required: true})
		c.Fields.Add(&core.TextField{Name: "date", Required: false})
		c.Fields.Add(&core.TextField{Name: "discount_percent", Required: true})
		c.Fields.Add(&core.TextField{Name: "markup_percent", Required: true})
		c.Fields.Add(&core.TextField{Name: "vat_percent", Required: true})
		c.Fields.Add(&core.TextField{Name: "delivery_terms", Required: false})
		c.Fields.Add(&core.TextField{Name: "self_pickup_warehouse", Required: false})
		c.Fields.Add(&core.TextField{Name: "warranty", Required: false})
		c.Fields.Add(&core.TextField{Name: "delivery_time", Required: false})
		c.Fields.Add(&core.BoolField{Name: "include_delivery"})
		c.Fields.Add(&core.TextField{Name: "delivery_cost", Required: false})
		c.Fields.Add(&core.TextField{Name: "default_unit", Required: false})
		c.Fields.Add(&core.TextField{Name: "total_amount", Required: false})
		c.Fields.Add(&core.TextField{Name: "vat_amount", Required: false})
		c.Fields.Add(&core.NumberField{Name: "item_count", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_quotes_number", true, "number", "")
	})

	ensureCollection(app, "quote_items", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "quote",
			Required:      true,
			CollectionId:  quotes.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order", Required: false})
		c.Fields.Add(&core.SelectField{
			Name:      "kind",
			Required:  true,
			Values:    []string{"product", "group_header"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "article", Required: false})
		c.Fields.Add(&core.TextField{Name: "name", Required: false})
		c.Fields.Add(&core.NumberField{Name: "quantity", Required: false})
		c.Fields.Add(&core.TextField{Name: "unit", Required: false})
		c.Fields.Add(&core.TextField{Name: "supplier_price", Required: false})
		c.Fields.Add(&core.TextField{Name: "markup", Required: false})
		c.Fields.Add(&core.TextField{Name: "client_price", Required: false})
		c.Fields.Add(&core.TextField{Name: "line_total", Required: false})
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
