package services

import (
	"testing"

	"quotedesk/config"
)

func newTestQuote(t *testing.T) *Quote {
	t.Helper()
	q := NewQuote("ТКП00061", config.DefaultQuoteDefaults())
	if err := q.SetParameters(d("10"), d("50"), d("20")); err != nil {
		t.Fatalf("SetParameters() error = %v", err)
	}
	return q
}

func itemNames(items []LineItem) []string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewQuote_Defaults(t *testing.T) {
	q := NewQuote("ТКП00061", config.DefaultQuoteDefaults())
	if q.Date == nil {
		t.Fatal("expected today's date")
	}
	if h, m, s := q.Date.Clock(); h != 0 || m != 0 || s != 0 {
		t.Errorf("date should be truncated to the day, got %v", q.Date)
	}
	if !q.VATPercent.Equal(d("20")) {
		t.Errorf("vat = %s, want 20", q.VATPercent)
	}
	if q.DefaultUnit != DefaultUnit {
		t.Errorf("default unit = %q, want %q", q.DefaultUnit, DefaultUnit)
	}
}

func TestQuote_AddItemPricesAndFillsUnit(t *testing.T) {
	q := newTestQuote(t)
	q.DefaultUnit = "компл."

	item := NewProduct("A1", "Камера", 2, "", d("100"))
	item.Unit = ""
	if err := q.AddItem(item); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	got := q.Items[0]
	if got.Unit != "компл." {
		t.Errorf("unit = %q, want компл.", got.Unit)
	}
	if !got.ClientPrice.Equal(d("135")) || !got.LineTotal.Equal(d("270")) {
		t.Errorf("prices = %s/%s, want 135/270", got.ClientPrice, got.LineTotal)
	}
}

func TestQuote_AddItemRejectsInvalid(t *testing.T) {
	q := newTestQuote(t)
	err := q.AddItem(NewProduct("", "", 1, "", d("1")))
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.(*Error).Op != "add item" {
		t.Errorf("op = %q, want add item", err.(*Error).Op)
	}
	if len(q.Items) != 0 {
		t.Errorf("rejected item was added")
	}
}

func TestQuote_GroupHeaderIsNormalized(t *testing.T) {
	q := newTestQuote(t)
	header := NewGroupHeader("Система")
	header.Quantity = 7
	header.SupplierPrice = d("500")
	if err := q.AddItem(header); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	got := q.Items[0]
	if got.Quantity != 0 || !got.SupplierPrice.IsZero() || !got.LineTotal.IsZero() {
		t.Errorf("group header kept product values: %+v", got)
	}
}

func TestQuote_InsertItem(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		want    []string
		wantErr bool
	}{
		{"at start", 0, []string{"X", "A", "B"}, false},
		{"in middle", 1, []string{"A", "X", "B"}, false},
		{"at end appends", 2, []string{"A", "B", "X"}, false},
		{"past end", 3, nil, true},
		{"negative", -1, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newTestQuote(t)
			q.AddItem(NewProduct("", "A", 1, "", d("1")))
			q.AddItem(NewProduct("", "B", 1, "", d("1")))

			err := q.InsertItem(tt.index, NewProduct("", "X", 1, "", d("1")))
			if tt.wantErr {
				if !IsKind(err, KindValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("InsertItem() error = %v", err)
			}
			if got := itemNames(q.Items); !equalStrings(got, tt.want) {
				t.Errorf("items = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuote_UpdateRemoveMove(t *testing.T) {
	q := newTestQuote(t)
	for _, name := range []string{"A", "B", "C", "D"} {
		if err := q.AddItem(NewProduct("", name, 1, "", d("10"))); err != nil {
			t.Fatalf("AddItem(%s) error = %v", name, err)
		}
	}

	if err := q.UpdateItem(1, NewProduct("", "B2", 3, "", d("10"))); err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	if !q.Items[1].LineTotal.Equal(d("40.5")) {
		t.Errorf("updated line total = %s, want 40.5", q.Items[1].LineTotal)
	}

	if err := q.UpdateItem(1, NewProduct("", "", 1, "", d("10"))); err == nil {
		t.Error("expected invalid update to fail")
	}
	if q.Items[1].Name != "B2" {
		t.Errorf("rejected update changed the item: %q", q.Items[1].Name)
	}

	if err := q.MoveItem(0, 3); err != nil {
		t.Fatalf("MoveItem() error = %v", err)
	}
	if got := itemNames(q.Items); !equalStrings(got, []string{"B2", "C", "D", "A"}) {
		t.Errorf("after move: %v", got)
	}

	if err := q.MoveItem(3, 1); err != nil {
		t.Fatalf("MoveItem() error = %v", err)
	}
	if got := itemNames(q.Items); !equalStrings(got, []string{"B2", "A", "C", "D"}) {
		t.Errorf("after second move: %v", got)
	}

	if err := q.RemoveItem(2); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if got := itemNames(q.Items); !equalStrings(got, []string{"B2", "A", "D"}) {
		t.Errorf("after remove: %v", got)
	}

	for _, tt := range []struct {
		name string
		fn   func() error
	}{
		{"update out of range", func() error { return q.UpdateItem(3, NewProduct("", "Z", 1, "", d("1"))) }},
		{"remove out of range", func() error { return q.RemoveItem(-1) }},
		{"move from out of range", func() error { return q.MoveItem(5, 0) }},
		{"move to out of range", func() error { return q.MoveItem(0, 3) }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !IsKind(err, KindValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestQuote_SetParameters(t *testing.T) {
	q := newTestQuote(t)
	q.AddItem(NewProduct("", "A", 2, "", d("100")))

	if err := q.SetParameters(d("0"), d("0"), d("10")); err != nil {
		t.Fatalf("SetParameters() error = %v", err)
	}
	if !q.Items[0].LineTotal.Equal(d("200")) {
		t.Errorf("line total = %s, want 200 after repricing", q.Items[0].LineTotal)
	}

	tests := []struct {
		name                  string
		discount, markup, vat string
	}{
		{"bad discount", "101", "0", "20"},
		{"bad markup", "0", "-3", "20"},
		{"bad vat", "0", "0", "100.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := q.SetParameters(d(tt.discount), d(tt.markup), d(tt.vat))
			if !IsKind(err, KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !q.VATPercent.Equal(d("10")) || !q.DiscountPercent.IsZero() || !q.MarkupPercent.IsZero() {
				t.Error("parameters changed after a rejected update")
			}
			if !q.Items[0].LineTotal.Equal(d("200")) {
				t.Error("items repriced after a rejected update")
			}
		})
	}
}

func TestQuote_TotalsAndCounts(t *testing.T) {
	q := NewQuote("ТКП00061", config.DefaultQuoteDefaults())
	q.AddItem(NewGroupHeader("Система видеонаблюдения"))
	q.AddItem(NewProduct("", "    Камера", 1, "", d("1000")))
	q.AddItem(NewProduct("", "    Кабель", 2, "м", d("100")))

	if q.ProductCount() != 2 {
		t.Errorf("ProductCount() = %d, want 2", q.ProductCount())
	}
	if !q.TotalAmount().Equal(d("1200")) {
		t.Errorf("TotalAmount() = %s, want 1200", q.TotalAmount())
	}
	if !q.VATAmount().Equal(d("200")) {
		t.Errorf("VATAmount() = %s, want 200", q.VATAmount())
	}

	totals, err := q.Totals()
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	if !totals.FinalTotal.Equal(q.TotalAmount()) {
		t.Errorf("Totals().FinalTotal = %s, TotalAmount() = %s", totals.FinalTotal, q.TotalAmount())
	}

	q.Clear()
	if len(q.Items) != 0 || !q.TotalAmount().IsZero() {
		t.Error("Clear() left items behind")
	}
}

func TestQuote_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(q *Quote)
		wantField string
	}{
		{"valid", func(q *Quote) {}, ""},
		{"negative delivery cost", func(q *Quote) { q.DeliveryCost = d("-1") }, "delivery_cost"},
		{"vat out of range", func(q *Quote) { q.VATPercent = d("200") }, "vat"},
		{"bad item", func(q *Quote) {
			q.Items = append(q.Items, LineItem{Kind: KindProduct, Name: "A", Quantity: -2})
		}, "items[0].quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuote("ТКП00061", config.DefaultQuoteDefaults())
			tt.mutate(q)
			err := q.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !IsKind(err, KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if err.(*Error).Field != tt.wantField {
				t.Errorf("field = %q, want %q", err.(*Error).Field, tt.wantField)
			}
		})
	}
}

func TestQuote_AppendImported(t *testing.T) {
	tests := []struct {
		name     string
		result   ImportResult
		wantRow  int
		wantPage int
	}{
		{
			name: "positions without sources",
			result: ImportResult{Items: []LineItem{
				NewGroupHeader("Система"),
				NewProduct("", "    A", 1, "", d("10")),
				NewProduct("", "    B", 1, "", d("-10")),
			}},
			wantRow: 3,
		},
		{
			name: "sheet rows",
			result: ImportResult{
				Items: []LineItem{
					NewGroupHeader("Система"),
					NewProduct("", "    A", 1, "", d("10")),
					NewProduct("", "    B", 1, "", d("-10")),
				},
				Sources: []RowRef{{Row: 2}, {Row: 5}, {Row: 9}},
			},
			wantRow: 9,
		},
		{
			name: "document rows",
			result: ImportResult{
				Items: []LineItem{
					NewProduct("", "A", 1, "", d("10")),
					NewProduct("", "B", 1, "", d("-10")),
				},
				Sources: []RowRef{{Page: 1, Row: 3}, {Page: 2, Row: 4}},
			},
			wantRow:  4,
			wantPage: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newTestQuote(t)
			skipped := q.AppendImported(tt.result)
			if len(q.Items) != len(tt.result.Items)-1 {
				t.Errorf("items = %d, want %d", len(q.Items), len(tt.result.Items)-1)
			}
			if len(skipped) != 1 {
				t.Fatalf("skipped = %+v, want one", skipped)
			}
			if sk := skipped[0]; sk.Row != tt.wantRow || sk.Page != tt.wantPage || sk.Field != "supplier_price" {
				t.Errorf("skipped = %+v, want page %d row %d supplier_price", sk, tt.wantPage, tt.wantRow)
			}
		})
	}
}
