package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// quoteFieldsAddedLater returns the quotes fields introduced after the
// first archive schema. Older databases get them on startup.
func quoteFieldsAddedLater() []core.Field {
	return []core.Field{
		&core.BoolField{Name: "include_delivery"},
		&core.TextField{Name: "delivery_cost", Required: false},
		&core.TextField{Name: "default_unit", Required: false},
		&core.TextField{Name: "vat_amount", Required: false},
		&core.NumberField{Name: "item_count", Required: false},
	}
}

// MigrateQuoteFields adds any missing late fields to an existing quotes
// collection. Safe to call on every startup -- returns early if nothing to
// migrate.
func MigrateQuoteFields(app *pocketbase.PocketBase) error {
	col, err := app.FindCollectionByNameOrId("quotes")
	if err != nil {
		return fmt.Errorf("migrate: could not find quotes collection: %w", err)
	}

	var added []string
	for _, f := range quoteFieldsAddedLater() {
		if col.Fields.GetByName(f.GetName()) != nil {
			continue
		}
		col.Fields.Add(f)
		added = append(added, f.GetName())
	}
	if len(added) == 0 {
		return nil
	}

	if err := app.Save(col); err != nil {
		return fmt.Errorf("migrate: could not update quotes collection: %w", err)
	}
	log.Printf("migrate: added quotes fields %v\n", added)
	return nil
}
