package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"quotedesk/config"
)

// Excel layout: title block in rows 1-2, column headers in row 4, data from row 5.
const (
	excelHeaderRow    = 4
	excelFirstDataRow = 5
)

var excelHeaders = []string{"№", "Наименование продукции", "Кол-во", "Ед.изм.", "Цена с НДС, руб.", "Всего с НДС, руб."}

// GenerateExcel creates an Excel file from the given ExportData and returns
// the file contents as a byte slice.
func GenerateExcel(data ExportData, style config.ExportStyle) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "КП"
	if data.Number != "" {
		sheetName = "КП " + data.Number
	}
	if r := []rune(sheetName); len(r) > 31 {
		sheetName = string(r[:31])
	}

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, Resource("set sheet name", err)
	}

	columns := []string{"A", "B", "C", "D", "E", "F"}
	lastCol := columns[len(columns)-1]

	widths := []float64{5, 50, 10, 10, 18, 18}
	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, Resource("set col width "+col, err)
		}
	}

	st, err := newExcelStyles(f, style)
	if err != nil {
		return nil, err
	}

	// ── Title block ─────────────────────────────────────────────────────

	title := style.Title
	if data.Number != "" {
		title = fmt.Sprintf("%s № %s", style.Title, data.Number)
	}
	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, Resource("merge title", err)
	}
	f.SetCellValue(sheetName, "A1", sanitizeExcelCell(title))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", st.title)

	subtitle := "от " + data.Date
	if data.CompanyName != "" {
		subtitle = data.CompanyName + ", " + subtitle
	}
	if err := f.MergeCell(sheetName, "A2", lastCol+"2"); err != nil {
		return nil, Resource("merge date", err)
	}
	f.SetCellValue(sheetName, "A2", sanitizeExcelCell(subtitle))
	f.SetCellStyle(sheetName, "A2", lastCol+"2", st.subtitle)

	// ── Column headers ──────────────────────────────────────────────────

	for i, h := range excelHeaders {
		f.SetCellValue(sheetName, fmt.Sprintf("%s%d", columns[i], excelHeaderRow), h)
	}
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", excelHeaderRow), fmt.Sprintf("%s%d", lastCol, excelHeaderRow), st.header)

	// ── Data rows ───────────────────────────────────────────────────────

	row := excelFirstDataRow
	for i, r := range data.Rows {
		rowStr := fmt.Sprintf("%d", row)

		if r.IsGroupHeader {
			if err := f.MergeCell(sheetName, "A"+rowStr, lastCol+rowStr); err != nil {
				return nil, Resource("merge group header", err)
			}
			f.SetCellValue(sheetName, "A"+rowStr, sanitizeExcelCell(r.Name))
			f.SetCellStyle(sheetName, "A"+rowStr, lastCol+rowStr, st.group)
			row++
			continue
		}

		f.SetCellValue(sheetName, "A"+rowStr, r.Number)
		f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(r.Name))
		f.SetCellValue(sheetName, "C"+rowStr, r.Quantity)
		f.SetCellValue(sheetName, "D"+rowStr, sanitizeExcelCell(r.Unit))
		f.SetCellValue(sheetName, "E"+rowStr, FormatAmount(r.ClientPrice))
		f.SetCellValue(sheetName, "F"+rowStr, FormatAmount(r.LineTotal))

		center, left, right := st.center, st.left, st.right
		if i%2 == 1 {
			center, left, right = st.centerAlt, st.leftAlt, st.rightAlt
		}
		f.SetCellStyle(sheetName, "A"+rowStr, "A"+rowStr, center)
		f.SetCellStyle(sheetName, "B"+rowStr, "B"+rowStr, left)
		f.SetCellStyle(sheetName, "C"+rowStr, "D"+rowStr, center)
		f.SetCellStyle(sheetName, "E"+rowStr, "F"+rowStr, right)
		row++
	}

	// ── Totals ──────────────────────────────────────────────────────────

	row++
	summary := []struct{ label, value string }{
		{"Итого:", FormatAmount(data.Total)},
		{fmt.Sprintf("В том числе НДС %s:", FormatPercent(data.VATPercent)), FormatAmount(data.VATAmount)},
	}
	if data.IncludeDelivery {
		summary = append(summary, struct{ label, value string }{"Доставка (оплачивается отдельно):", FormatAmount(data.DeliveryCost)})
	}
	for _, s := range summary {
		rowStr := fmt.Sprintf("%d", row)
		if err := f.MergeCell(sheetName, "A"+rowStr, "E"+rowStr); err != nil {
			return nil, Resource("merge summary label", err)
		}
		f.SetCellValue(sheetName, "A"+rowStr, s.label)
		f.SetCellStyle(sheetName, "A"+rowStr, "E"+rowStr, st.summaryLabel)
		f.SetCellValue(sheetName, "F"+rowStr, s.value)
		f.SetCellStyle(sheetName, "F"+rowStr, "F"+rowStr, st.summaryValue)
		row++
	}

	rowStr := fmt.Sprintf("%d", row)
	if err := f.MergeCell(sheetName, "A"+rowStr, lastCol+rowStr); err != nil {
		return nil, Resource("merge amount in words", err)
	}
	f.SetCellValue(sheetName, "A"+rowStr, fmt.Sprintf("Всего наименований %d, на сумму %s", data.ItemCount, data.AmountInWords))
	row += 2

	// ── Offer details ───────────────────────────────────────────────────

	for _, d := range exportDetails(data) {
		rowStr := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "A"+rowStr, d.label)
		f.SetCellStyle(sheetName, "A"+rowStr, "A"+rowStr, st.detailLabel)
		if err := f.MergeCell(sheetName, "B"+rowStr, lastCol+rowStr); err != nil {
			return nil, Resource("merge detail", err)
		}
		f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(d.value))
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, Resource("write excel", err)
	}

	return buf.Bytes(), nil
}

type exportDetail struct{ label, value string }

// exportDetails lists the offer terms printed under the table.
func exportDetails(data ExportData) []exportDetail {
	details := []exportDetail{
		{"Дата КП:", data.Date},
		{"Номер КП:", data.Number},
		{"Срок поставки:", data.DeliveryTime},
		{"Склад самовывоза:", data.SelfPickupWarehouse},
		{"Гарантия:", data.Warranty},
	}
	if data.DeliveryTerms != "" {
		details = append(details, exportDetail{"Условия поставки:", data.DeliveryTerms})
	}
	return details
}

type excelStyles struct {
	title, subtitle, header, group          int
	center, left, right                     int
	centerAlt, leftAlt, rightAlt            int
	summaryLabel, summaryValue, detailLabel int
}

func newExcelStyles(f *excelize.File, style config.ExportStyle) (excelStyles, error) {
	var st excelStyles
	size := style.FontSize

	specs := []struct {
		name string
		dst  *int
		s    *excelize.Style
	}{
		{"title", &st.title, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: style.HeadingSize + 4},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
		{"subtitle", &st.subtitle, &excelize.Style{
			Font:      &excelize.Font{Size: size + 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
		{"header", &st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: style.HeaderTextColor, Size: size + 1},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{style.HeaderColor}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    thinBorders(),
		}},
		{"group", &st.group, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: size + 1},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{style.GroupHeaderColor}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorders(),
		}},
		{"summary label", &st.summaryLabel, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: size + 1},
			Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
		}},
		{"summary value", &st.summaryValue, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: size + 1},
			Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
			Border:    thinBorders(),
		}},
		{"detail label", &st.detailLabel, &excelize.Style{
			Font: &excelize.Font{Bold: true, Size: size},
		}},
	}

	// Product cells in three alignments, plain and on the alternate row fill.
	for _, alt := range []bool{false, true} {
		for _, a := range []struct {
			horizontal string
			plain, alt *int
		}{
			{"center", &st.center, &st.centerAlt},
			{"left", &st.left, &st.leftAlt},
			{"right", &st.right, &st.rightAlt},
		} {
			s := &excelize.Style{
				Font:      &excelize.Font{Size: size},
				Alignment: &excelize.Alignment{Horizontal: a.horizontal, Vertical: "center", WrapText: a.horizontal == "left"},
				Border:    thinBorders(),
			}
			dst := a.plain
			if alt {
				s.Fill = excelize.Fill{Type: "pattern", Color: []string{style.AlternateRowColor}, Pattern: 1}
				dst = a.alt
			}
			specs = append(specs, struct {
				name string
				dst  *int
				s    *excelize.Style
			}{"item " + a.horizontal, dst, s})
		}
	}

	for _, spec := range specs {
		id, err := f.NewStyle(spec.s)
		if err != nil {
			return excelStyles{}, Resource("create "+spec.name+" style", err)
		}
		*spec.dst = id
	}
	return st, nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
