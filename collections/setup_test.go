package collections_test

import (
	"testing"

	"quotedesk/collections"
	"quotedesk/testhelpers"

	"github.com/pocketbase/pocketbase/core"
)

// expectedCollections is the full list of collections that Setup() must create.
var expectedCollections = []string{
	"quotes",
	"quote_items",
}

func TestSetup_AllCollectionsExist(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	for _, name := range expectedCollections {
		col, err := app.FindCollectionByNameOrId(name)
		if err != nil {
			t.Errorf("collection %q not found after Setup(): %v", name, err)
			continue
		}
		if col.Name != name {
			t.Errorf("expected collection name %q, got %q", name, col.Name)
		}
	}
}

func TestSetup_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t) // Setup() already called once via NewTestApp

	ids := make(map[string]string)
	for _, name := range expectedCollections {
		col, _ := app.FindCollectionByNameOrId(name)
		ids[name] = col.Id
	}

	collections.Setup(app)

	for _, name := range expectedCollections {
		col, err := app.FindCollectionByNameOrId(name)
		if err != nil {
			t.Errorf("collection %q missing after second Setup(): %v", name, err)
			continue
		}
		if col.Id != ids[name] {
			t.Errorf("collection %q id changed after second Setup(): %s -> %s", name, ids[name], col.Id)
		}
	}
}

func TestSetup_QuotesFields(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, _ := app.FindCollectionByNameOrId("quotes")

	fields := []string{
		"number", "date", "discount_percent", "markup_percent", "vat_percent",
		"delivery_terms", "self_pickup_warehouse", "warranty", "delivery_time",
		"include_delivery", "delivery_cost", "default_unit",
		"total_amount", "vat_amount", "item_count", "created", "updated",
	}
	for _, f := range fields {
		if col.Fields.GetByName(f) == nil {
			t.Errorf("quotes: missing field %q", f)
		}
	}

	// Decimals are kept as text so no precision is lost.
	for _, f := range []string{"discount_percent", "markup_percent", "vat_percent", "delivery_cost", "total_amount"} {
		if _, ok := col.Fields.GetByName(f).(*core.TextField); !ok {
			t.Errorf("quotes.%s is not a TextField", f)
		}
	}
}

func TestSetup_QuoteNumberUnique(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestQuote(t, app, "ТКП00061")

	col, _ := app.FindCollectionByNameOrId("quotes")
	dup := core.NewRecord(col)
	dup.Set("number", "ТКП00061")
	dup.Set("discount_percent", "0")
	dup.Set("markup_percent", "0")
	dup.Set("vat_percent", "20")
	if err := app.Save(dup); err == nil {
		t.Error("expected duplicate quote number to be rejected")
	}
}

func TestSetup_QuoteItemsFields(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, _ := app.FindCollectionByNameOrId("quote_items")

	fields := []string{
		"quote", "sort_order", "kind", "article", "name", "quantity", "unit",
		"supplier_price", "markup", "client_price", "line_total",
	}
	for _, f := range fields {
		if col.Fields.GetByName(f) == nil {
			t.Errorf("quote_items: missing field %q", f)
		}
	}

	kindField := col.Fields.GetByName("kind")
	if sf, ok := kindField.(*core.SelectField); ok {
		expected := map[string]bool{"product": true, "group_header": true}
		for _, v := range sf.Values {
			if !expected[v] {
				t.Errorf("unexpected kind value: %q", v)
			}
			delete(expected, v)
		}
		for v := range expected {
			t.Errorf("missing kind value: %q", v)
		}
	} else {
		t.Errorf("kind field is not a SelectField")
	}

	quoteField := col.Fields.GetByName("quote")
	if rf, ok := quoteField.(*core.RelationField); ok {
		if !rf.CascadeDelete {
			t.Error("quote_items.quote: expected CascadeDelete=true")
		}
		if rf.MaxSelect != 1 {
			t.Errorf("quote_items.quote: expected MaxSelect=1, got %d", rf.MaxSelect)
		}
	} else {
		t.Errorf("quote_items.quote is not a RelationField")
	}
}

func TestSetup_CascadeDeleteItems(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	quote := testhelpers.CreateTestQuote(t, app, "ТКП00062")
	testhelpers.CreateTestQuoteItem(t, app, quote.Id, 0, "product", "Камера", "100")
	testhelpers.CreateTestQuoteItem(t, app, quote.Id, 1, "product", "Регистратор", "200")

	if err := app.Delete(quote); err != nil {
		t.Fatalf("delete quote: %v", err)
	}
	items, err := app.FindAllRecords("quote_items")
	if err != nil {
		t.Fatalf("query items: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected items to be deleted with the quote, got %d", len(items))
	}
}
