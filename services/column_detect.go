package services

import (
	"strings"
)

// Field is a logical line-item attribute an import column can feed.
type Field string

const (
	FieldName     Field = "name"
	FieldArticle  Field = "article"
	FieldQuantity Field = "quantity"
	FieldUnit     Field = "unit"
	FieldPrice    Field = "price"
)

// Fields lists the mappable fields in display order.
var Fields = []Field{FieldArticle, FieldName, FieldQuantity, FieldUnit, FieldPrice}

// ColumnMapping maps a field to a zero-based column index.
type ColumnMapping map[Field]int

// Has reports whether the field is mapped.
func (m ColumnMapping) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

type fieldKeywords struct {
	field    Field
	keywords []string
}

// Price comes before unit: "Цена за ед." must not be taken for a unit column.
var columnKeywords = []fieldKeywords{
	{FieldName, []string{"наименование", "название", "товар", "name"}},
	{FieldArticle, []string{"артикул", "арт.", "арт", "номер", "article", "sku"}},
	{FieldQuantity, []string{"количество", "кол-во", "кол.", "quantity", "qty"}},
	{FieldPrice, []string{"цена", "стоимость", "price"}},
	{FieldUnit, []string{"ед.изм", "ед. изм", "единица", "ед.", "unit"}},
}

// DetectColumns guesses the mapping from a header row. Each column is
// assigned to at most one field and the first matching column wins per
// field. Unmatched fields are left out.
func DetectColumns(header []string) ColumnMapping {
	mapping := make(ColumnMapping)
	for i, h := range header {
		title := strings.ToLower(strings.TrimSpace(h))
		if title == "" {
			continue
		}
		for _, fk := range columnKeywords {
			if mapping.Has(fk.field) {
				continue
			}
			if containsAny(title, fk.keywords) {
				mapping[fk.field] = i
				break
			}
		}
	}
	return mapping
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// MappingFromHeaders builds a mapping from column titles chosen by the user.
// Titles are compared case-insensitively; an empty title leaves the field
// unmapped.
func MappingFromHeaders(header []string, chosen map[Field]string) (ColumnMapping, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	mapping := make(ColumnMapping)
	for field, title := range chosen {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		i, ok := index[strings.ToLower(title)]
		if !ok {
			return nil, Validation("no column titled " + quoteValue(title)).WithField(string(field))
		}
		mapping[field] = i
	}
	if !mapping.Has(FieldName) {
		return nil, Validation("the name column must be mapped").WithField(string(FieldName))
	}
	return mapping, nil
}
