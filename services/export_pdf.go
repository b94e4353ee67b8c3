package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	mconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/johnfercher/maroto/v2/pkg/repository"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"quotedesk/config"
)

// customFontFamily is the UTF-8 family every PDF text uses: the Go fonts
// by default, or style.FontFile when set.
const customFontFamily = "quote"

// pdfPalette holds the style colours converted for maroto.
type pdfPalette struct {
	header, headerText, group, alternate *props.Color
	family                               string
	size, heading                        float64
}

func newPDFPalette(style config.ExportStyle) (pdfPalette, error) {
	colour := func(hex string) (*props.Color, error) {
		r, g, b, err := config.ParseHexColor(hex)
		if err != nil {
			return nil, Validation(err.Error()).WithField("style")
		}
		return &props.Color{Red: r, Green: g, Blue: b}, nil
	}

	var p pdfPalette
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
	p.size = style.FontSize
	p.heading = style.HeadingSize
	return p, nil
}

// GeneratePDF creates a PDF document from quote export data using maroto/v2.
func GeneratePDF(data ExportData, style config.ExportStyle) ([]byte, error) {
	palette, err := newPDFPalette(style)
	if err != nil {
		return nil, err
	}

	builder := mconfig.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(style.MarginLeft).
		WithTopMargin(style.MarginTop).
		WithRightMargin(style.MarginRight).
		WithPageNumber(props.PageNumber{
			Pattern: "{current} / {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		})

	fonts, err := loadPDFFonts(style)
	if err != nil {
		return nil, err
	}
	builder = builder.WithCustomFonts(fonts).WithDefaultFont(&props.Font{Family: customFontFamily})
	palette.family = customFontFamily

	m := maroto.New(builder.Build())

	addQuoteHeader(m, data, style, palette)
	addItemsHeader(m, palette)
	for i, r := range data.Rows {
		addItemRow(m, r, i%2 == 1, palette)
	}
	addQuoteSummary(m, data, palette)
	addQuoteTerms(m, data, palette)

	doc, err := m.Generate()
	if err != nil {
		return nil, Resource("failed to generate PDF", err)
	}

	return doc.GetBytes(), nil
}

// loadPDFFonts registers the regular and bold faces. The core PDF fonts
// are cp1252 only, so Cyrillic always goes through a UTF-8 font.
func loadPDFFonts(style config.ExportStyle) ([]*entity.CustomFont, error) {
	repo := repository.New()
	if style.FontFile == "" {
		repo = repo.
			AddUTF8FontFromBytes(customFontFamily, fontstyle.Normal, goregular.TTF).
			AddUTF8FontFromBytes(customFontFamily, fontstyle.Bold, gobold.TTF)
	} else {
		bold := style.BoldFontFile
		if bold == "" {
			bold = style.FontFile
		}
		repo = repo.
			AddUTF8Font(customFontFamily, fontstyle.Normal, style.FontFile).
			AddUTF8Font(customFontFamily, fontstyle.Bold, bold)
	}
	fonts, err := repo.Load()
	if err != nil {
		return nil, Resource("load font", err).WithField(style.FontFile)
	}
	return fonts, nil
}

func (p pdfPalette) text(size float64, style fontstyle.Type, a align.Type) props.Text {
	return props.Text{Family: p.family, Size: size, Style: style, Align: a}
}

// addQuoteHeader adds the title, number and date.
func addQuoteHeader(m core.Maroto, data ExportData, style config.ExportStyle, p pdfPalette) {
	if data.CompanyName != "" {
		m.AddRows(
			row.New(7).Add(
				col.New(12).Add(text.New(data.CompanyName, p.text(p.size, fontstyle.Bold, align.Left))),
			),
		)
	}

	m.AddRows(
		row.New(10).Add(
			col.New(12).Add(text.New(style.Title, p.text(p.heading+4, fontstyle.Bold, align.Center))),
		),
	)

	sub := p.text(p.size-1, fontstyle.Normal, align.Left)
	sub.Color = &props.Color{Red: 80, Green: 80, Blue: 80}
	subRight := sub
	subRight.Align = align.Right
	m.AddRows(
		row.New(7).Add(
			col.New(6).Add(text.New("№ "+data.Number, sub)),
			col.New(6).Add(text.New("от "+data.Date, subRight)),
		),
	)

	m.AddRows(row.New(4))
}

// pdfColumns are the table column widths on maroto's 12-column grid.
var pdfColumns = []int{1, 5, 1, 1, 2, 2}

// addItemsHeader adds the column header row.
func addItemsHeader(m core.Maroto, p pdfPalette) {
	headerText := p.text(p.size-2, fontstyle.Bold, align.Center)
	headerText.Color = p.headerText
	headerCell := &props.Cell{BackgroundColor: p.header}

	cols := make([]core.Col, len(excelHeaders))
	for i, h := range excelHeaders {
		cols[i] = col.New(pdfColumns[i]).Add(text.New(h, headerText)).WithStyle(headerCell)
	}
	m.AddRows(row.New(10).Add(cols...))
}

// addItemRow adds one table row; group headers span the full width.
func addItemRow(m core.Maroto, r ExportRow, alternate bool, p pdfPalette) {
	if r.IsGroupHeader {
		m.AddRows(
			row.New(7).Add(
				col.New(12).Add(
					text.New(r.Name, p.text(p.size-1, fontstyle.Bold, align.Center)),
				).WithStyle(&props.Cell{BackgroundColor: p.group}),
			),
		)
		return
	}

	base := p.text(p.size-2, fontstyle.Normal, align.Center)
	left := base
	left.Align = align.Left
	right := base
	right.Align = align.Right

	cols := []core.Col{
		col.New(pdfColumns[0]).Add(text.New(fmt.Sprintf("%d", r.Number), base)),
		col.New(pdfColumns[1]).Add(text.New(r.Name, left)),
		col.New(pdfColumns[2]).Add(text.New(FormatQuantity(r.Quantity), base)),
		col.New(pdfColumns[3]).Add(text.New(r.Unit, base)),
		col.New(pdfColumns[4]).Add(text.New(FormatAmount(r.ClientPrice), right)),
		col.New(pdfColumns[5]).Add(text.New(FormatAmount(r.LineTotal), right)),
	}
	if alternate {
		cell := &props.Cell{BackgroundColor: p.alternate}
		for i := range cols {
			cols[i] = cols[i].WithStyle(cell)
		}
	}
	m.AddRows(row.New(7).Add(cols...))
}

// addQuoteSummary adds the totals, VAT and the amount in words.
func addQuoteSummary(m core.Maroto, data ExportData, p pdfPalette) {
	m.AddRows(row.New(4))

	label := p.text(p.size-1, fontstyle.Bold, align.Right)
	value := label

	lines := []struct{ label, value string }{
		{"Итого:", FormatRUB(data.Total)},
		{fmt.Sprintf("В том числе НДС %s:", FormatPercent(data.VATPercent)), FormatRUB(data.VATAmount)},
	}
	if data.IncludeDelivery {
		lines = append(lines, struct{ label, value string }{"Доставка (оплачивается отдельно):", FormatRUB(data.DeliveryCost)})
	}
	for _, l := range lines {
		m.AddRows(
			row.New(7).Add(
				col.New(8).Add(text.New(l.label, label)),
				col.New(4).Add(text.New(l.value, value)),
			),
		)
	}

	m.AddRows(
		row.New(10).Add(
			col.New(12).Add(text.New(
				fmt.Sprintf("Всего наименований %d, на сумму %s", data.ItemCount, data.AmountInWords),
				p.text(p.size-1, fontstyle.Normal, align.Left),
			)),
		),
	)
}

// addQuoteTerms adds the delivery and warranty terms.
func addQuoteTerms(m core.Maroto, data ExportData, p pdfPalette) {
	m.AddRows(row.New(4))
	label := p.text(p.size-1, fontstyle.Bold, align.Left)
	value := p.text(p.size-1, fontstyle.Normal, align.Left)
	for _, d := range exportDetails(data)[2:] {
		m.AddRows(
			row.New(6).Add(
				col.New(4).Add(text.New(d.label, label)),
				col.New(8).Add(text.New(d.value, value)),
			),
		)
	}
}
