package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// clipboardColumns is the number of tab-separated cells a row needs.
const clipboardColumns = 7

// FormatClipboard renders items as tab-separated rows: article, name,
// quantity, unit, supplier price, markup, client price, total. Group
// headers leave every cell but the name empty. The markup cell is empty
// for rows without an override. Supplier price and markup are written
// unrounded so a pasted copy keeps the stored values.
func FormatClipboard(items []LineItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		if item.IsGroupHeader() {
			lines = append(lines, "\t"+item.Name+"\t\t\t\t\t\t")
			continue
		}
		markup := ""
		if item.Markup.Valid {
			markup = exactCell(item.Markup.Decimal)
		}
		lines = append(lines, strings.Join([]string{
			item.Article,
			item.Name,
			FormatQuantity(item.Quantity),
			item.Unit,
			exactCell(item.SupplierPrice),
			markup,
			FormatAmount(item.ClientPrice),
			FormatAmount(item.LineTotal),
		}, "\t"))
	}
	return strings.Join(lines, "\n")
}

// exactCell writes d with a decimal comma and no grouping: 10.125 → "10,125".
func exactCell(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", ",", 1)
}

// ParseClipboard reads rows produced by FormatClipboard or copied from a
// spreadsheet with the same column order. A row whose article and quantity
// cells are both empty is a group header. Short or unparseable rows are
// skipped. Prices are left for the quote to compute.
func ParseClipboard(text string, opts ImportOptions) ImportResult {
	var result ImportResult
	// Only line breaks are trimmed: a leading tab is the empty article cell.
	text = strings.Trim(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if strings.TrimSpace(text) == "" {
		return result
	}
	for i, line := range strings.Split(text, "\n") {
		result.TotalRows++
		rowNum := i + 1 + opts.RowOffset
		cells := strings.Split(line, "\t")
		if len(cells) < clipboardColumns {
			result.skip(rowNum, Parse("expected at least 7 tab-separated cells", nil))
			continue
		}
		item, err := parseClipboardRow(cells, opts)
		if err != nil {
			result.skip(rowNum, err)
			continue
		}
		if item.Name == "" {
			result.Dropped++
			continue
		}
		result.add(item, RowRef{Row: rowNum})
	}
	return result
}

func parseClipboardRow(cells []string, opts ImportOptions) (LineItem, error) {
	article := strings.TrimSpace(cells[0])
	name := strings.TrimRight(cells[1], " \t")
	qtyCell := strings.TrimSpace(cells[2])

	if article == "" && qtyCell == "" {
		return NewGroupHeader(strings.TrimSpace(name)), nil
	}
	if strings.TrimSpace(name) == "" {
		return LineItem{}, nil
	}

	qty := 1
	if qtyCell != "" {
		var err error
		if qty, err = ParseQuantity(qtyCell); err != nil {
			return LineItem{}, err
		}
	}

	unit := strings.TrimSpace(cells[3])
	if unit == "" {
		unit = opts.unit()
	}

	price := decimal.Zero
	if raw := strings.TrimSpace(cells[4]); raw != "" {
		var err error
		if price, err = ParseUserDecimal("supplier_price", raw); err != nil {
			return LineItem{}, err
		}
	}

	item := NewProduct(article, name, qty, unit, price)
	if raw := strings.TrimSpace(cells[5]); raw != "" {
		markup, err := ParseUserDecimal("markup", raw)
		if err != nil {
			return LineItem{}, err
		}
		item = item.WithMarkup(markup)
	}
	if err := item.Validate(); err != nil {
		return LineItem{}, err
	}
	return item, nil
}
