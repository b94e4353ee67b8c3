// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quotedesk/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestQuote creates a quote record with VAT 20 and no discount or
// markup, and returns it.
func CreateTestQuote(t *testing.T, app *pocketbase.PocketBase, number string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("quotes")
	if err != nil {
		t.Fatalf("failed to find quotes collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("number", number)
	record.Set("date", "14.10.2026")
	record.Set("discount_percent", "0")
	record.Set("markup_percent", "0")
	record.Set("vat_percent", "20")
	record.Set("delivery_cost", "0")
	record.Set("default_unit", "шт.")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test quote: %v", err)
	}

	return record
}

// CreateTestQuoteItem creates a quote_items record with quantity 1 and
// returns it. kind is "product" or "group_header".
func CreateTestQuoteItem(t *testing.T, app *pocketbase.PocketBase, quoteID string, sortOrder int, kind, name, supplierPrice string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("quote_items")
	if err != nil {
		t.Fatalf("failed to find quote_items collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("quote", quoteID)
	record.Set("sort_order", sortOrder)
	record.Set("kind", kind)
	record.Set("name", name)
	if kind == "product" {
		record.Set("quantity", 1)
		record.Set("unit", "шт.")
		record.Set("supplier_price", supplierPrice)
	}

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test quote item: %v", err)
	}

	return record
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

// truncate shortens s to n runes so Cyrillic bodies are not cut mid-character.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
