package services

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"quotedesk/config"
)

// wordColumns is the item table column count.
const wordColumns = 6

// wordPalette holds the style colours as bare RRGGBB values.
type wordPalette struct {
	header, headerText, group, alternate string
	size, heading                        string
}

func newWordPalette(style config.ExportStyle) (wordPalette, error) {
	colour := func(hex string) (string, error) {
		if _, _, _, err := config.ParseHexColor(hex); err != nil {
			return "", Validation(err.Error()).WithField("style")
		}
		return strings.ToUpper(strings.TrimPrefix(hex, "#")), nil
	}

	var p wordPalette
	var err error
	if p.header, err = colour(style.HeaderColor); err != nil {
		return p, err
	}
	if p.headerText, err = colour(style.HeaderTextColor); err != nil {
		return p, err
	}
	if p.group, err = colour(style.GroupHeaderColor); err != nil {
		return p, err
	}
	if p.alternate, err = colour(style.AlternateRowColor); err != nil {
		return p, err
	}
	p.size = halfPoints(style.FontSize)
	p.heading = halfPoints(style.HeadingSize + 4)
	return p, nil
}

// halfPoints converts a point size to the half-point units of w:sz.
func halfPoints(pt float64) string {
	return strconv.Itoa(int(pt*2 + 0.5))
}

// GenerateWord creates a .docx document from quote export data.
func GenerateWord(data ExportData, style config.ExportStyle) ([]byte, error) {
	p, err := newWordPalette(style)
	if err != nil {
		return nil, err
	}

	f := docx.New().WithDefaultTheme().WithA4Page()

	if data.CompanyName != "" {
		f.AddParagraph().AddText(data.CompanyName).Bold().Size(p.size)
	}
	f.AddParagraph().Justification("center").
		AddText(fmt.Sprintf("%s № %s", style.Title, data.Number)).Bold().Size(p.heading)
	f.AddParagraph().Justification("center").AddText("от " + data.Date).Size(p.size).Color("505050")

	addWordItems(f, data.Rows, p)
	addWordSummary(f, data, p)
	addWordTerms(f, data, p)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, Resource("failed to generate Word document", err)
	}
	return buf.Bytes(), nil
}

// addWordItems adds the item table: a shaded header, merged group rows
// and alternating item rows.
func addWordItems(f *docx.Docx, rows []ExportRow, p wordPalette) {
	tbl := f.AddTable(len(rows)+1, wordColumns, 0, nil)

	for j, h := range excelHeaders {
		cell := tbl.TableRows[0].TableCells[j]
		cell.Shade("clear", "auto", p.header)
		cell.AddParagraph().Justification("center").AddText(h).Bold().Size(p.size).Color(p.headerText)
	}

	for i, r := range rows {
		tr := tbl.TableRows[i+1]
		if r.IsGroupHeader {
			cell := tr.TableCells[0]
			cell.TableCellProperties.GridSpan = &docx.WGridSpan{Val: wordColumns}
			cell.Shade("clear", "auto", p.group)
			cell.AddParagraph().Justification("center").AddText(r.Name).Bold().Size(p.size)
			tr.TableCells = tr.TableCells[:1]
			continue
		}

		values := []struct {
			text, align string
		}{
			{strconv.Itoa(r.Number), "center"},
			{r.Name, "start"},
			{FormatQuantity(r.Quantity), "center"},
			{r.Unit, "center"},
			{FormatAmount(r.ClientPrice), "end"},
			{FormatAmount(r.LineTotal), "end"},
		}
		for j, v := range values {
			cell := tr.TableCells[j]
			if i%2 == 1 {
				cell.Shade("clear", "auto", p.alternate)
			}
			preserveSpaces(cell.AddParagraph().Justification(v.align).AddText(v.text).Size(p.size))
		}
	}
}

// addWordSummary adds the totals, VAT and the amount in words.
func addWordSummary(f *docx.Docx, data ExportData, p wordPalette) {
	f.AddParagraph()
	f.AddParagraph().Justification("end").AddText("Итого: " + FormatRUB(data.Total)).Bold().Size(p.size)
	f.AddParagraph().Justification("end").
		AddText(fmt.Sprintf("В том числе НДС %s: %s", FormatPercent(data.VATPercent), FormatRUB(data.VATAmount))).Size(p.size)
	if data.IncludeDelivery {
		f.AddParagraph().Justification("end").
			AddText("Доставка (оплачивается отдельно): " + FormatRUB(data.DeliveryCost)).Size(p.size)
	}
	f.AddParagraph().
		AddText(fmt.Sprintf("Всего наименований %d, на сумму %s", data.ItemCount, data.AmountInWords)).Size(p.size)
}

// addWordTerms adds the delivery and warranty terms.
func addWordTerms(f *docx.Docx, data ExportData, p wordPalette) {
	for _, d := range exportDetails(data)[2:] {
		para := f.AddParagraph()
		preserveSpaces(para.AddText(d.label + " ").Bold().Size(p.size))
		para.AddText(d.value).Size(p.size)
	}
}

// preserveSpaces keeps the indent of grouped product names.
func preserveSpaces(run *docx.Run) {
	for _, c := range run.Children {
		if t, ok := c.(*docx.Text); ok {
			t.XMLSpace = "preserve"
		}
	}
}
