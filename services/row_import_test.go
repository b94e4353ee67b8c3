package services

import (
	"strconv"
	"strings"
	"testing"
)

func TestImportRows_GroupsAndIndent(t *testing.T) {
	rows := [][]string{
		{"Система вентиляции", "", "", ""},
		{"Клапан", "K100", "5", "1 200,50"},
		{"", "", "", ""},
	}
	mapping := DetectColumns([]string{"Наименование", "Арт.", "Кол-во", "Цена"})

	result, err := ImportRows(rows, mapping, ImportOptions{RowOffset: 1})
	if err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(result.Items))
	}

	header := result.Items[0]
	if !header.IsGroupHeader() || header.Name != "Система вентиляции" {
		t.Errorf("first item = %+v, want group header", header)
	}

	product := result.Items[1]
	if product.Name != "    Клапан" {
		t.Errorf("name = %q, want indented", product.Name)
	}
	if product.Article != "K100" || product.Quantity != 5 || product.Unit != DefaultUnit {
		t.Errorf("product = %+v", product)
	}
	if !product.SupplierPrice.Equal(d("1200.50")) {
		t.Errorf("price = %s, want 1200.50", product.SupplierPrice)
	}
	if result.Dropped != 1 || result.TotalRows != 3 {
		t.Errorf("dropped/total = %d/%d, want 1/3", result.Dropped, result.TotalRows)
	}
	if len(result.Sources) != 2 || result.Sources[0].Row != 2 || result.Sources[1].Row != 3 {
		t.Errorf("sources = %+v, want rows 2 and 3", result.Sources)
	}
}

func TestImportRows_BadPriceIsSkipped(t *testing.T) {
	var rows [][]string
	for i := 1; i <= 10; i++ {
		price := strconv.Itoa(i * 100)
		if i == 4 {
			price = "abc"
		}
		rows = append(rows, []string{"Товар " + strconv.Itoa(i), price})
	}
	mapping := ColumnMapping{FieldName: 0, FieldPrice: 1}

	result, err := ImportRows(rows, mapping, ImportOptions{RowOffset: 1})
	if err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}
	if len(result.Items) != 9 {
		t.Errorf("items = %d, want 9", len(result.Items))
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("skipped = %d, want 1", len(result.Skipped))
	}
	sk := result.Skipped[0]
	if sk.Row != 5 || sk.Field != "price" {
		t.Errorf("skipped = %+v, want row 5 field price", sk)
	}
	if got := result.Summary(); got != "imported 9, skipped 1 (invalid price: 1)" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestImportRows_Defaults(t *testing.T) {
	rows := [][]string{{"Кабель", "", ""}, {"Розетка", "12", "компл."}}
	mapping := ColumnMapping{FieldName: 0, FieldQuantity: 1, FieldUnit: 2}

	result, err := ImportRows(rows, mapping, ImportOptions{DefaultUnit: "м"})
	if err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}
	first, second := result.Items[0], result.Items[1]
	if first.Quantity != 1 || first.Unit != "м" || !first.SupplierPrice.IsZero() {
		t.Errorf("defaults not applied: %+v", first)
	}
	if second.Quantity != 12 || second.Unit != "компл." {
		t.Errorf("second = %+v", second)
	}
	if first.Name != "Кабель" {
		t.Errorf("rows outside a group must not be indented: %q", first.Name)
	}
}

func TestImportRows_CustomGroupMarkers(t *testing.T) {
	rows := [][]string{{"Раздел 1. Кабели"}, {"Кабель"}, {"группа Б"}}
	result, err := ImportRows(rows, ColumnMapping{FieldName: 0}, ImportOptions{GroupMarkers: []string{" Раздел "}})
	if err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}
	if !result.Items[0].IsGroupHeader() || !result.Items[2].IsGroupHeader() {
		t.Errorf("custom and default markers must both open groups: %v", result.Items)
	}
	if !strings.HasPrefix(result.Items[1].Name, GroupIndent) {
		t.Errorf("product under a group = %q", result.Items[1].Name)
	}
}

func TestImportRows_ShortRowsAndMissingName(t *testing.T) {
	_, err := ImportRows(nil, ColumnMapping{FieldPrice: 0}, ImportOptions{})
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error without a name column, got %v", err)
	}

	result, err := ImportRows([][]string{{"Камера"}}, ColumnMapping{FieldName: 0, FieldPrice: 4}, ImportOptions{})
	if err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}
	if len(result.Items) != 1 || !result.Items[0].SupplierPrice.IsZero() {
		t.Errorf("a short row reads missing cells as empty: %+v", result.Items)
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"5", 5, false},
		{" 1 000 ", 1000, false},
		{"5,0", 5, false},
		{"0", 0, false},
		{"2.5", 0, true},
		{"-1", 0, true},
		{"пять", 0, true},
		{"99999999999", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQuantity(tt.in)
			if tt.wantErr {
				if !IsKind(err, KindParse) || err.(*Error).Field != "quantity" {
					t.Fatalf("expected quantity parse error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQuantity(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseQuantity(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1200.50", "1200.50", false},
		{"1 200,50 ₽", "1200.50", false},
		{"abc", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			if tt.wantErr {
				if !IsKind(err, KindParse) || err.(*Error).Field != "price" {
					t.Fatalf("expected price parse error, got %v (%s)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrice(%q) error = %v", tt.in, err)
			}
			if !got.Equal(d(tt.want)) {
				t.Errorf("ParsePrice(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestImportResult_SummaryGroupsFields(t *testing.T) {
	r := ImportResult{
		Items: make([]LineItem, 3),
		Skipped: []SkippedRow{
			{Row: 2, Field: "quantity"},
			{Row: 3, Field: "price"},
			{Row: 7, Field: "price"},
			{Row: 9},
		},
	}
	want := "imported 3, skipped 4 (invalid price: 2, invalid quantity: 1, invalid row: 1)"
	if got := r.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
	if r.SkippedCount() != 4 {
		t.Errorf("SkippedCount() = %d", r.SkippedCount())
	}
}
