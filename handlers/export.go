package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quotedesk/config"
	"quotedesk/services"
	"quotedesk/templates"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	return s
}

// contentDisposition builds an attachment header. Quote numbers are
// Cyrillic, so the name is also sent RFC 5987 encoded.
func contentDisposition(filename string) string {
	filename = sanitizeFilename(filename)
	ascii := strings.Map(func(r rune) rune {
		if r > 127 || r == '"' {
			return '_'
		}
		return r
	}, filename)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, ascii, url.PathEscape(filename))
}

// exportFilename is "КП_<number>.<ext>", or "КП.<ext>" without a number.
func exportFilename(number, ext string) string {
	if number == "" {
		return "КП." + ext
	}
	return fmt.Sprintf("КП_%s.%s", number, ext)
}

// HandleQuoteExport downloads a quote as json (the quote file), excel, pdf
// or word.
func HandleQuoteExport(app *pocketbase.PocketBase, cfg config.Config, style config.ExportStyle) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		format := e.Request.PathValue("format")
		q, _, err := loadQuote(app, cfg, e.Request.PathValue("id"))
		if err != nil {
			return respondError(e, "export_"+format, err)
		}

		var (
			body        []byte
			contentType string
			ext         string
		)
		switch format {
		case "json":
			var buf bytes.Buffer
			if err := services.SaveQuote(&buf, q); err != nil {
				return respondError(e, "export_json", err)
			}
			body, contentType, ext = buf.Bytes(), "application/json; charset=utf-8", "json"
		case "excel", "pdf", "word":
			data, err := services.BuildExportData(q, cfg.Terms)
			if err != nil {
				return respondError(e, "export_"+format, err)
			}
			data.Title = style.Title
			switch format {
			case "excel":
				body, err = services.GenerateExcel(data, style)
				contentType, ext = xlsxContentType, "xlsx"
			case "word":
				body, err = services.GenerateWord(data, style)
				contentType, ext = docxContentType, "docx"
			default:
				body, err = services.GeneratePDF(data, style)
				contentType, ext = "application/pdf", "pdf"
			}
			if err != nil {
				return respondError(e, "export_"+format, err)
			}
		default:
			return respondError(e, "export", services.Validationf("unknown export format %q", format).WithField("format"))
		}

		log.Printf("export_%s: %s (%d bytes)", format, q.Number, len(body))
		e.Response.Header().Set("Content-Type", contentType)
		e.Response.Header().Set("Content-Disposition", contentDisposition(exportFilename(q.Number, ext)))
		e.Response.Write(body)
		return nil
	}
}

type loadResponse struct {
	Quote        quoteView             `json:"quote"`
	Skipped      []services.SkippedRow `json:"skipped"`
	DateReplaced bool                  `json:"date_replaced"`
	Replaced     bool                  `json:"replaced"`
}

// HandleQuoteLoad opens an uploaded quote file into the archive. A quote
// with the same number is replaced.
func HandleQuoteLoad(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseMultipartForm(maxBodySize); err != nil {
			return respondError(e, "quote_load", services.Parse("failed to parse upload", err).WithField("file"))
		}
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return respondError(e, "quote_load", services.Validation("no file uploaded").WithField("file"))
		}
		defer file.Close()

		q, report, err := services.LoadQuote(file, loadOptions(cfg))
		if err != nil {
			return respondError(e, "quote_load", err)
		}
		if strings.TrimSpace(q.Number) == "" {
			if q.Number, err = services.NextQuoteNumber(app, cfg.NumberBase); err != nil {
				return respondError(e, "quote_load", err)
			}
		}

		existingID, err := services.FindQuoteIDByNumber(app, q.Number)
		if err != nil {
			return respondError(e, "quote_load", err)
		}
		id, err := services.SaveQuoteRecord(app, existingID, q)
		if err != nil {
			return respondError(e, "quote_load", err)
		}
		view, err := newQuoteView(id, q, report)
		if err != nil {
			return respondError(e, "quote_load", err)
		}

		skipped := report.Skipped
		if skipped == nil {
			skipped = []services.SkippedRow{}
		}
		app.Logger().Info("quote loaded",
			"file", header.Filename,
			"quote", q.Number,
			"items", len(q.Items),
			"skipped", len(skipped),
			"date_replaced", report.DateReplaced,
		)
		if len(skipped) > 0 {
			SetToast(e, "warning", fmt.Sprintf("loaded %s, skipped %d items", q.Number, len(skipped)))
		}

		return e.JSON(http.StatusOK, loadResponse{
			Quote:        view,
			Skipped:      skipped,
			DateReplaced: report.DateReplaced,
			Replaced:     existingID != "",
		})
	}
}

// HandleQuotePreview renders the printable HTML page of a quote.
func HandleQuotePreview(app *pocketbase.PocketBase, cfg config.Config, style config.ExportStyle) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q, _, err := loadQuote(app, cfg, e.Request.PathValue("id"))
		if err != nil {
			return respondError(e, "quote_preview", err)
		}
		data, err := services.BuildExportData(q, cfg.Terms)
		if err != nil {
			return respondError(e, "quote_preview", err)
		}
		data.Title = style.Title

		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		return templates.QuotePreview(data, style).Render(e.Request.Context(), e.Response)
	}
}
