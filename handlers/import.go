package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quotedesk/config"
	"quotedesk/services"
)

// previewRowCount is the number of data rows shown next to the column mapping.
const previewRowCount = 10

// readUploadedSheet parses the multipart "file" field as a spreadsheet.
func readUploadedSheet(e *core.RequestEvent) (services.Sheet, error) {
	if err := e.Request.ParseMultipartForm(maxBodySize); err != nil {
		return services.Sheet{}, services.Parse("failed to parse upload", err).WithField("file")
	}
	file, header, err := e.Request.FormFile("file")
	if err != nil {
		return services.Sheet{}, services.Validation("no file uploaded").WithField("file")
	}
	defer file.Close()
	return services.ReadSpreadsheet(file, header.Filename)
}

type columnsResponse struct {
	Sheet   string            `json:"sheet"`
	Header  []string          `json:"header"`
	Mapping map[string]string `json:"mapping"`
	Fields  []services.Field  `json:"fields"`
	Preview [][]string        `json:"preview"`
	Rows    int               `json:"rows"`
}

// HandleImportColumns detects the column mapping of an uploaded sheet and
// returns it with a preview, so the user can confirm or correct it.
func HandleImportColumns() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sheet, err := readUploadedSheet(e)
		if err != nil {
			return respondError(e, "import_columns", err)
		}

		detected := services.DetectColumns(sheet.Header)
		mapping := make(map[string]string, len(detected))
		for field, col := range detected {
			mapping[string(field)] = sheet.Header[col]
		}

		return e.JSON(http.StatusOK, columnsResponse{
			Sheet:   sheet.Name,
			Header:  sheet.Header,
			Mapping: mapping,
			Fields:  services.Fields,
			Preview: services.PreviewRows(sheet, previewRowCount),
			Rows:    len(sheet.Rows),
		})
	}
}

// uploadedMapping reads the optional "mapping" form field, a JSON object of
// field name to column title. Absent means auto-detect.
func uploadedMapping(e *core.RequestEvent, sheet services.Sheet) (services.ColumnMapping, error) {
	raw := e.Request.FormValue("mapping")
	if raw == "" {
		return nil, nil
	}
	var chosen map[services.Field]string
	if err := json.Unmarshal([]byte(raw), &chosen); err != nil {
		return nil, services.Parse("invalid mapping JSON", err).WithField("mapping")
	}
	return services.MappingFromHeaders(sheet.Header, chosen)
}

// HandleImportSpreadsheet appends the rows of an uploaded .xlsx or .csv.
func HandleImportSpreadsheet(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sheet, err := readUploadedSheet(e)
		if err != nil {
			return respondError(e, "import_spreadsheet", err)
		}
		mapping, err := uploadedMapping(e, sheet)
		if err != nil {
			return respondError(e, "import_spreadsheet", err)
		}
		result, err := services.ImportSpreadsheet(sheet, mapping, importOptions(cfg))
		if err != nil {
			return respondError(e, "import_spreadsheet", err)
		}
		return appendAndRespond(e, app, cfg, "import_spreadsheet", e.Request.PathValue("id"), result)
	}
}

// documentRequest carries the text and tables extracted from a supplier
// document, one entry per page.
type documentRequest struct {
	Pages []services.Page `json:"pages" validate:"required,min=1"`
}

// HandleImportDocument appends the product rows of a supplier document.
func HandleImportDocument(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req documentRequest
		if err := decodeJSON(e, &req); err != nil {
			return respondError(e, "import_document", err)
		}
		result, err := services.ExtractFromDocument(req.Pages, importOptions(cfg))
		if err != nil {
			return respondError(e, "import_document", err)
		}
		return appendAndRespond(e, app, cfg, "import_document", e.Request.PathValue("id"), result)
	}
}

type skipReportRequest struct {
	Skipped []services.SkippedRow `json:"skipped" validate:"required,min=1"`
}

// HandleImportSkipReport turns the skipped rows of an import into an .xlsx
// download.
func HandleImportSkipReport() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req skipReportRequest
		if err := decodeJSON(e, &req); err != nil {
			return respondError(e, "import_skip_report", err)
		}
		report, err := services.GenerateSkipReport(req.Skipped)
		if err != nil {
			return respondError(e, "import_skip_report", err)
		}
		e.Response.Header().Set("Content-Type", xlsxContentType)
		e.Response.Header().Set("Content-Disposition", contentDisposition(fmt.Sprintf("skipped_%s.xlsx", e.Request.PathValue("id"))))
		e.Response.Write(report)
		return nil
	}
}
