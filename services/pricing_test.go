package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeLinePrice(t *testing.T) {
	tests := []struct {
		name       string
		item       LineItem
		discount   string
		markup     string
		wantClient string
		wantTotal  string
	}{
		{"no discount no markup", NewProduct("", "A", 3, "", d("100")), "0", "0", "100", "300"},
		{"discount and markup", NewProduct("", "A", 2, "", d("100")), "10", "50", "135", "270"},
		{"second margin item", NewProduct("", "B", 1, "", d("50")), "10", "50", "67.5", "67.5"},
		{"rounds half away from zero", NewProduct("", "A", 1, "", d("0.125")), "0", "0", "0.13", "0.13"},
		{"full discount", NewProduct("", "A", 5, "", d("999.99")), "100", "30", "0", "0"},
		{"zero quantity", NewProduct("", "A", 0, "", d("100")), "0", "20", "120", "0"},
		{"line markup overrides quote markup", NewProduct("", "A", 2, "", d("100")).WithMarkup(d("10")), "0", "50", "110", "220"},
		{"line total from rounded unit price", NewProduct("", "A", 3, "", d("10.005")), "0", "0", "10.01", "30.03"},
		{"group header is zero", NewGroupHeader("Система"), "10", "50", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, total, err := ComputeLinePrice(tt.item, d(tt.discount), d(tt.markup))
			if err != nil {
				t.Fatalf("ComputeLinePrice() error = %v", err)
			}
			if !client.Equal(d(tt.wantClient)) {
				t.Errorf("clientPrice = %s, want %s", client, tt.wantClient)
			}
			if !total.Equal(d(tt.wantTotal)) {
				t.Errorf("lineTotal = %s, want %s", total, tt.wantTotal)
			}
		})
	}
}

func TestComputeLinePrice_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		item      LineItem
		discount  string
		markup    string
		wantField string
	}{
		{"discount above 100", NewProduct("", "A", 1, "", d("1")), "100.01", "0", "discount_from_supplier"},
		{"negative discount", NewProduct("", "A", 1, "", d("1")), "-1", "0", "discount_from_supplier"},
		{"markup above 100", NewProduct("", "A", 1, "", d("1")), "0", "101", "markup_for_client"},
		{"negative supplier price", NewProduct("", "A", 1, "", d("-1")), "0", "0", "supplier_price"},
		{"negative quantity", NewProduct("", "A", -1, "", d("1")), "0", "0", "quantity"},
		{"empty name", NewProduct("", "  ", 1, "", d("1")), "0", "0", "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ComputeLinePrice(tt.item, d(tt.discount), d(tt.markup))
			if !IsKind(err, KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if field := err.(*Error).Field; field != tt.wantField {
				t.Errorf("field = %q, want %q", field, tt.wantField)
			}
		})
	}
}

func TestUpdateAllPrices_Idempotent(t *testing.T) {
	items := []LineItem{
		NewGroupHeader("Система вентиляции"),
		NewProduct("K100", "    Клапан", 5, "шт.", d("1200.50")),
		NewProduct("K200", "    Решётка", 3, "шт.", d("333.33")).WithMarkup(d("15")),
	}

	if err := UpdateAllPrices(items, d("7.5"), d("22")); err != nil {
		t.Fatalf("first UpdateAllPrices() error = %v", err)
	}
	first := append([]LineItem(nil), items...)

	if err := UpdateAllPrices(items, d("7.5"), d("22")); err != nil {
		t.Fatalf("second UpdateAllPrices() error = %v", err)
	}
	for i := range items {
		if !items[i].ClientPrice.Equal(first[i].ClientPrice) || !items[i].LineTotal.Equal(first[i].LineTotal) {
			t.Errorf("item %d changed on second run: %s/%s -> %s/%s", i,
				first[i].ClientPrice, first[i].LineTotal, items[i].ClientPrice, items[i].LineTotal)
		}
	}
	if !items[0].ClientPrice.IsZero() || !items[0].LineTotal.IsZero() {
		t.Error("group header must have zero prices")
	}
}

func TestUpdateAllPrices_FailureLeavesItemsUntouched(t *testing.T) {
	items := []LineItem{
		NewProduct("", "A", 1, "", d("100")),
		NewProduct("", "B", 1, "", d("-5")),
	}
	items[0].ClientPrice = d("1")

	err := UpdateAllPrices(items, d("0"), d("0"))
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if field := err.(*Error).Field; field != "items[1].supplier_price" {
		t.Errorf("field = %q, want items[1].supplier_price", field)
	}
	if !items[0].ClientPrice.Equal(d("1")) {
		t.Errorf("first item was repriced before the failure: %s", items[0].ClientPrice)
	}
}

func TestComputeQuoteTotals_MarginScenario(t *testing.T) {
	items := []LineItem{
		NewProduct("", "A", 2, "", d("100")),
		NewProduct("", "B", 1, "", d("50")),
	}

	totals, err := ComputeQuoteTotals(items, d("10"), d("50"), d("20"))
	if err != nil {
		t.Fatalf("ComputeQuoteTotals() error = %v", err)
	}

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"supplierTotal", totals.SupplierTotal, "250"},
		{"discountedTotal", totals.DiscountedTotal, "225"},
		{"finalTotal", totals.FinalTotal, "337.5"},
		{"vatAmount", totals.VATAmount, "56.25"},
		{"margin", totals.Margin, "112.5"},
		{"marginPercent", totals.MarginPercent, "33.3"},
		{"clientSavings", totals.ClientSavings, "-87.5"},
		{"clientSavingsPercent", totals.ClientSavingsPercent, "-35"},
	}
	for _, c := range checks {
		if !c.got.Equal(d(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if totals.ItemCount != 2 {
		t.Errorf("itemCount = %d, want 2", totals.ItemCount)
	}
}

func TestComputeQuoteTotals_VATExtraction(t *testing.T) {
	items := []LineItem{NewProduct("", "A", 1, "", d("1200"))}

	totals, err := ComputeQuoteTotals(items, d("0"), d("0"), d("20"))
	if err != nil {
		t.Fatalf("ComputeQuoteTotals() error = %v", err)
	}
	if !totals.FinalTotal.Equal(d("1200")) {
		t.Errorf("finalTotal = %s, want 1200", totals.FinalTotal)
	}
	if !totals.VATAmount.Equal(d("200")) {
		t.Errorf("vatAmount = %s, want 200", totals.VATAmount)
	}
}

func TestComputeQuoteTotals_HeadersNeverCounted(t *testing.T) {
	withHeaders := []LineItem{
		NewGroupHeader("Система 1"),
		NewProduct("", "A", 2, "", d("10")),
		NewGroupHeader("Система 2"),
		NewGroupHeader("Группа пустая"),
		NewProduct("", "B", 1, "", d("5")),
	}
	withoutHeaders := []LineItem{withHeaders[1], withHeaders[4]}

	a, err := ComputeQuoteTotals(withHeaders, d("5"), d("10"), d("20"))
	if err != nil {
		t.Fatalf("with headers: %v", err)
	}
	b, err := ComputeQuoteTotals(withoutHeaders, d("5"), d("10"), d("20"))
	if err != nil {
		t.Fatalf("without headers: %v", err)
	}
	if a.ItemCount != 2 || b.ItemCount != 2 {
		t.Errorf("itemCount = %d/%d, want 2", a.ItemCount, b.ItemCount)
	}
	if !a.FinalTotal.Equal(b.FinalTotal) || !a.SupplierTotal.Equal(b.SupplierTotal) {
		t.Errorf("headers changed totals: %s vs %s", a.FinalTotal, b.FinalTotal)
	}
}

func TestComputeQuoteTotals_Empty(t *testing.T) {
	totals, err := ComputeQuoteTotals(nil, d("0"), d("0"), d("20"))
	if err != nil {
		t.Fatalf("ComputeQuoteTotals() error = %v", err)
	}
	if totals.ItemCount != 0 || !totals.FinalTotal.IsZero() {
		t.Errorf("expected zero totals, got %+v", totals)
	}
	if !totals.MarginPercent.IsZero() || !totals.ClientSavingsPercent.IsZero() {
		t.Error("percentages of a zero total must be 0")
	}
}

func TestComputeQuoteTotals_ZeroVAT(t *testing.T) {
	items := []LineItem{NewProduct("", "A", 1, "", d("1200"))}
	totals, err := ComputeQuoteTotals(items, d("0"), d("0"), d("0"))
	if err != nil {
		t.Fatalf("ComputeQuoteTotals() error = %v", err)
	}
	if !totals.VATAmount.IsZero() {
		t.Errorf("vatAmount = %s, want 0", totals.VATAmount)
	}
}

func TestComputeQuoteTotals_InvalidVAT(t *testing.T) {
	_, err := ComputeQuoteTotals(nil, d("0"), d("0"), d("120"))
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPercentRatio_ZeroWhole(t *testing.T) {
	if _, err := percentRatio(d("5"), decimal.Zero); !IsKind(err, KindArithmetic) {
		t.Errorf("expected arithmetic error, got %v", err)
	}
	if got := percentRatioOrZero(d("5"), decimal.Zero); !got.IsZero() {
		t.Errorf("percentRatioOrZero = %s, want 0", got)
	}
}

