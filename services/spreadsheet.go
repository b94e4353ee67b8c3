package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is a parsed spreadsheet: the first row is the header.
type Sheet struct {
	Name   string     `json:"name"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// ReadSpreadsheet parses an .xlsx (first sheet) or .csv upload. The format
// is chosen by file extension.
func ReadSpreadsheet(r io.Reader, fileName string) (Sheet, error) {
	var (
		sheet Sheet
		err   error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		sheet, err = parseExcel(r)
	case ".csv":
		sheet, err = parseCSV(r)
	default:
		return Sheet{}, Validation("unsupported file format: must be .csv or .xlsx").WithField(fileName).WithOp("read spreadsheet")
	}
	if err != nil {
		if e, ok := err.(*Error); ok {
			return Sheet{}, e.WithField(fileName).WithOp("read spreadsheet")
		}
		return Sheet{}, err
	}
	if sheet.Name == "" {
		sheet.Name = strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	}
	return sheet, nil
}

// parseCSV reads a CSV file. Semicolon-separated exports (the usual output
// of a Russian-locale Excel) are detected from the header line.
func parseCSV(file io.Reader) (Sheet, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return Sheet{}, Resource("failed to read CSV", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	firstLine, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		reader.Comma = ';'
	}

	allRows, err := reader.ReadAll()
	if err != nil {
		return Sheet{}, Parse("failed to parse CSV", err)
	}
	return sheetFromRows("", allRows)
}

// parseExcel reads the first sheet of an xlsx workbook. Cells are read as
// stored values: a displayed "1,000" under a #,##0 format is 1000.
func parseExcel(file io.Reader) (Sheet, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return Sheet{}, Resource("failed to open Excel file", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return Sheet{}, Resource("failed to read sheet "+quoteValue(sheetName), err)
	}
	return sheetFromRows(sheetName, rows)
}

func sheetFromRows(name string, rows [][]string) (Sheet, error) {
	// Leading empty rows are common above the header in supplier price lists.
	for len(rows) > 0 && isEmptyRow(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return Sheet{}, Validation("file must contain a header row")
	}
	return Sheet{Name: name, Header: rows[0], Rows: rows[1:]}, nil
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// PreviewRows returns at most n data rows for the column mapping preview.
func PreviewRows(sheet Sheet, n int) [][]string {
	if n < 0 {
		n = 0
	}
	if n > len(sheet.Rows) {
		n = len(sheet.Rows)
	}
	return sheet.Rows[:n]
}

// ImportSpreadsheet normalises the data rows of a sheet. A nil mapping is
// detected from the header. Reported row numbers are sheet rows below the
// header, so the first data row is row 2.
func ImportSpreadsheet(sheet Sheet, mapping ColumnMapping, opts ImportOptions) (ImportResult, error) {
	if mapping == nil {
		mapping = DetectColumns(sheet.Header)
	}
	opts.RowOffset++
	result, err := ImportRows(sheet.Rows, mapping, opts)
	if err != nil {
		return ImportResult{}, withOp(err, "import spreadsheet")
	}
	log.Printf("import: sheet %s: %s", quoteValue(sheet.Name), result.Summary())
	return result, nil
}

// GenerateSkipReport creates a downloadable .xlsx listing skipped rows.
func GenerateSkipReport(skipped []SkippedRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Пропущено"
	defaultSheet := f.GetSheetName(0)
	f.SetSheetName(defaultSheet, sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	f.SetCellValue(sheet, "A1", "Строка")
	f.SetCellValue(sheet, "B1", "Поле")
	f.SetCellValue(sheet, "C1", "Причина")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 10)
	f.SetColWidth(sheet, "B", "B", 18)
	f.SetColWidth(sheet, "C", "C", 60)

	for i, s := range skipped {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, s.Row)
		f.SetCellValue(sheet, "B"+row, s.Field)
		f.SetCellValue(sheet, "C"+row, sanitizeExcelCell(s.Reason))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, Resource("write skip report", err)
	}
	return buf.Bytes(), nil
}
