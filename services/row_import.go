package services

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// DefaultGroupMarkers start the name of a row that opens a new group.
var DefaultGroupMarkers = []string{"система", "группа"}

// ImportOptions tune row normalisation.
type ImportOptions struct {
	// GroupMarkers extend DefaultGroupMarkers.
	GroupMarkers []string
	// DefaultUnit replaces DefaultUnit for rows without a unit.
	DefaultUnit string
	// RowOffset is added to row numbers in skip reports, e.g. 1 when the
	// rows follow a header line.
	RowOffset int
}

func (o ImportOptions) unit() string {
	if strings.TrimSpace(o.DefaultUnit) != "" {
		return o.DefaultUnit
	}
	return DefaultUnit
}

func (o ImportOptions) markers() []string {
	markers := make([]string, 0, len(DefaultGroupMarkers)+len(o.GroupMarkers))
	for _, m := range append(append([]string{}, DefaultGroupMarkers...), o.GroupMarkers...) {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			markers = append(markers, m)
		}
	}
	return markers
}

// SkippedRow reports a row that did not become a line item.
type SkippedRow struct {
	Page   int    `json:"page,omitempty"`
	Row    int    `json:"row"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

// ImportResult is the outcome of a batch import. Rows ignored without an
// error (blank names, document rows that are not items) are counted in
// Dropped, not in Skipped.
type ImportResult struct {
	Items     []LineItem   `json:"-"`
	Skipped   []SkippedRow `json:"skipped"`
	Dropped   int          `json:"dropped"`
	TotalRows int          `json:"total_rows"`
	// Sources holds the source position of each entry in Items.
	Sources []RowRef `json:"-"`
	// Format names the document layout used, empty for spreadsheets.
	Format string `json:"format,omitempty"`
}

// SkippedCount is the number of rows rejected by a parse or validation failure.
func (r ImportResult) SkippedCount() int {
	return len(r.Skipped)
}

// Summary renders one line for the user, grouping skip reasons by field.
func (r ImportResult) Summary() string {
	s := fmt.Sprintf("imported %d, skipped %d", len(r.Items), len(r.Skipped))
	if len(r.Skipped) == 0 {
		return s
	}
	byField := make(map[string]int)
	for _, sk := range r.Skipped {
		f := sk.Field
		if f == "" {
			f = "row"
		}
		byField[f]++
	}
	keys := make([]string, 0, len(byField))
	for k := range byField {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("invalid %s: %d", k, byField[k]))
	}
	return s + " (" + strings.Join(parts, ", ") + ")"
}

// RowRef locates a row in an import source. Page is 0 outside documents.
type RowRef struct {
	Page int
	Row  int
}

func (r *ImportResult) add(item LineItem, src RowRef) {
	r.Items = append(r.Items, item)
	r.Sources = append(r.Sources, src)
}

// source returns where Items[i] came from, or its position when unknown.
func (r ImportResult) source(i int) RowRef {
	if i < len(r.Sources) {
		return r.Sources[i]
	}
	return RowRef{Row: i + 1}
}

func (r *ImportResult) skip(row int, err error) {
	sk := skippedFromError(row, err)
	log.Printf("import: row %d skipped: %s: %s", sk.Row, sk.Field, sk.Reason)
	r.Skipped = append(r.Skipped, sk)
}

func skippedFromError(row int, err error) SkippedRow {
	sk := SkippedRow{Row: row, Reason: err.Error()}
	if e, ok := err.(*Error); ok {
		sk.Field = e.Field
		sk.Reason = e.Message
	}
	return sk
}

// ImportRows normalises raw rows into line items. A missing name mapping is
// the only hard error; every row-level failure is recorded and skipped.
func ImportRows(rows [][]string, mapping ColumnMapping, opts ImportOptions) (ImportResult, error) {
	if !mapping.Has(FieldName) {
		return ImportResult{}, Validation("the name column is not mapped").WithField(string(FieldName)).WithOp("import rows")
	}

	n := newRowNormalizer(mapping, opts)
	result := ImportResult{TotalRows: len(rows)}
	for i, row := range rows {
		n.add(&result, i+1+opts.RowOffset, row)
	}
	return result, nil
}

// rowNormalizer carries the current group across rows.
type rowNormalizer struct {
	mapping ColumnMapping
	unit    string
	markers []string
	inGroup bool
}

func newRowNormalizer(mapping ColumnMapping, opts ImportOptions) *rowNormalizer {
	return &rowNormalizer{mapping: mapping, unit: opts.unit(), markers: opts.markers()}
}

// cell returns the trimmed value of f, empty when f is unmapped or the row
// is short.
func (n *rowNormalizer) cell(row []string, f Field) string {
	i, ok := n.mapping[f]
	if !ok || i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (n *rowNormalizer) add(result *ImportResult, rowNum int, row []string) {
	name := n.cell(row, FieldName)
	if name == "" {
		result.Dropped++
		return
	}

	if n.isGroupMarker(name) {
		result.add(NewGroupHeader(name), RowRef{Row: rowNum})
		n.inGroup = true
		return
	}

	item, err := n.product(row, name)
	if err != nil {
		result.skip(rowNum, err)
		return
	}
	result.add(item, RowRef{Row: rowNum})
}

func (n *rowNormalizer) isGroupMarker(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range n.markers {
		if strings.HasPrefix(lower, m) {
			return true
		}
	}
	return false
}

func (n *rowNormalizer) product(row []string, name string) (LineItem, error) {
	article := n.cell(row, FieldArticle)

	qty := 1
	if raw := n.cell(row, FieldQuantity); raw != "" {
		var err error
		if qty, err = ParseQuantity(raw); err != nil {
			return LineItem{}, err
		}
	}

	unit := n.cell(row, FieldUnit)
	if unit == "" {
		unit = n.unit
	}

	price := decimal.Zero
	if raw := n.cell(row, FieldPrice); raw != "" {
		var err error
		if price, err = ParsePrice(raw); err != nil {
			return LineItem{}, err
		}
	}

	if n.inGroup && !strings.HasPrefix(name, GroupIndent) {
		name = GroupIndent + name
	}

	item := NewProduct(article, name, qty, unit, price)
	if err := item.Validate(); err != nil {
		return LineItem{}, err
	}
	return item, nil
}

// ParseQuantity reads an item count. Spaces (including NBSP) used as
// thousands separators are removed and "5,0" is accepted as 5.
func ParseQuantity(raw string) (int, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, Parse("not a number: "+quoteValue(raw), err).WithField(string(FieldQuantity))
	}
	if !d.IsInteger() {
		return 0, Parse("not a whole number: "+quoteValue(raw), nil).WithField(string(FieldQuantity))
	}
	if d.IsNegative() {
		return 0, Parse("must not be negative: "+quoteValue(raw), nil).WithField(string(FieldQuantity))
	}
	if !d.LessThanOrEqual(decimal.NewFromInt(1 << 31)) {
		return 0, Parse("too large: "+quoteValue(raw), nil).WithField(string(FieldQuantity))
	}
	return int(d.IntPart()), nil
}

// ParsePrice keeps only digits, '.' and ',' and reads the rest as a
// decimal with ',' as the decimal separator ("1 200,50 ₽" is 1200.50).
func ParsePrice(raw string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			return r
		}
		return -1
	}, raw)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return decimal.Zero, Parse("not a price: "+quoteValue(raw), nil).WithField(string(FieldPrice))
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, Parse("not a price: "+quoteValue(raw), err).WithField(string(FieldPrice))
	}
	return d, nil
}
