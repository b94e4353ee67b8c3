package services

import (
	"iter"
	"log"
	"strings"

	"github.com/shopspring/decimal"
)

// Table is one table extracted from a document page, rows by positional cells.
type Table [][]string

// Page is the extracted content of one document page.
type Page struct {
	Number int     `json:"number"`
	Text   string  `json:"text"`
	Tables []Table `json:"tables"`
}

// TableRow addresses a single row of an extracted table.
type TableRow struct {
	Page  int
	Table int
	Row   int
	Cells []string
}

// DocumentFormat is a table layout used by a document source, typically a
// supplier's price sheet.
type DocumentFormat interface {
	Name() string
	// Matches is given the text of the first page only.
	Matches(firstPageText string) bool
	// RequiresHeader reports whether tables without a header line are ignored.
	RequiresHeader() bool
	// ParseRow turns a data row into a product. ok is false for rows that are
	// not items at all (totals, separators) and are dropped without a report.
	ParseRow(cells []string, opts ImportOptions) (item LineItem, ok bool, err error)
}

// DefaultDocumentFormats are the built-in vendor layouts. The generic layout
// is the fallback and is not part of the list.
func DefaultDocumentFormats() []DocumentFormat {
	return []DocumentFormat{VingsMFormat{}}
}

// DocumentRows yields the rows of every table in page order. Rows of a table
// up to and including its header line are left out; a table with no header
// line is yielded whole unless requireHeader is set.
func DocumentRows(pages []Page, requireHeader bool) iter.Seq[TableRow] {
	return func(yield func(TableRow) bool) {
		for pi, page := range pages {
			pageNum := page.Number
			if pageNum == 0 {
				pageNum = pi + 1
			}
			for ti, table := range page.Tables {
				start := headerIndex(table) + 1
				if start == 0 && requireHeader {
					continue
				}
				for ri := start; ri < len(table); ri++ {
					if !yield(TableRow{Page: pageNum, Table: ti + 1, Row: ri + 1, Cells: table[ri]}) {
						return
					}
				}
			}
		}
	}
}

// headerIndex returns the index of the first row with a cell naming the
// item column, or -1.
func headerIndex(table Table) int {
	for i, row := range table {
		for _, c := range row {
			if strings.Contains(strings.ToLower(c), "наименование") {
				return i
			}
		}
	}
	return -1
}

// ExtractFromDocument imports items from extracted document pages with the
// built-in formats.
func ExtractFromDocument(pages []Page, opts ImportOptions) (ImportResult, error) {
	return ExtractWithFormats(pages, DefaultDocumentFormats(), opts)
}

// ExtractWithFormats picks the first format matching the first page's text,
// falling back to GenericFormat, and imports every table row with it.
func ExtractWithFormats(pages []Page, formats []DocumentFormat, opts ImportOptions) (ImportResult, error) {
	if len(pages) == 0 {
		return ImportResult{}, Resource("document has no pages", nil).WithOp("extract from document")
	}

	format := DetectDocumentFormat(pages[0].Text, formats)
	log.Printf("import: document format %s", format.Name())

	result := ImportResult{Format: format.Name()}
	for row := range DocumentRows(pages, format.RequiresHeader()) {
		result.TotalRows++
		if isEmptyRow(row.Cells) {
			result.Dropped++
			continue
		}
		item, ok, err := format.ParseRow(row.Cells, opts)
		if err != nil {
			sk := skippedFromError(row.Row, err)
			sk.Page = row.Page
			log.Printf("import: page %d table %d row %d skipped: %s: %s", row.Page, row.Table, row.Row, sk.Field, sk.Reason)
			result.Skipped = append(result.Skipped, sk)
			continue
		}
		if !ok {
			result.Dropped++
			continue
		}
		result.add(item, RowRef{Page: row.Page, Row: row.Row})
	}
	log.Printf("import: document: %s", result.Summary())
	return result, nil
}

// DetectDocumentFormat returns the first matching format or GenericFormat.
func DetectDocumentFormat(firstPageText string, formats []DocumentFormat) DocumentFormat {
	for _, f := range formats {
		if f.Matches(firstPageText) {
			return f
		}
	}
	return GenericFormat{}
}

// GenericFormat reads tables laid out as article, name, quantity, price.
type GenericFormat struct{}

func (GenericFormat) Name() string { return "generic" }

func (GenericFormat) Matches(string) bool { return true }

func (GenericFormat) RequiresHeader() bool { return false }

func (GenericFormat) ParseRow(cells []string, opts ImportOptions) (LineItem, bool, error) {
	if len(cells) < 4 {
		return LineItem{}, false, nil
	}
	name := strings.TrimSpace(cells[1])
	if name == "" {
		return LineItem{}, false, nil
	}

	qty := 1
	if raw := keepRunes(cells[2], "0123456789."); raw != "" {
		var err error
		if qty, err = ParseQuantity(raw); err != nil {
			return LineItem{}, false, err
		}
	}

	price, ok, err := positivePrice(cells[3])
	if err != nil || !ok {
		return LineItem{}, false, err
	}

	return NewProduct(strings.TrimSpace(cells[0]), name, qty, opts.unit(), price), true, nil
}

// positivePrice parses a price cell. Empty and non-positive prices are not
// items.
func positivePrice(raw string) (decimal.Decimal, bool, error) {
	if keepRunes(raw, "0123456789.,") == "" {
		return decimal.Zero, false, nil
	}
	price, err := ParsePrice(raw)
	if err != nil {
		return decimal.Zero, false, err
	}
	if !price.IsPositive() {
		return decimal.Zero, false, nil
	}
	return price, true, nil
}

func keepRunes(s, allowed string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(allowed, r) {
			return r
		}
		return -1
	}, s)
}
