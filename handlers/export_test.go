package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/pocketbase/pocketbase"
	"github.com/xuri/excelize/v2"

	"quotedesk/config"
	"quotedesk/services"
	"quotedesk/testhelpers"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"spaces to hyphens", "КП ТКП00061", "КП-ТКП00061"},
		{"slashes to hyphens", "path/to/file", "path-to-file"},
		{"backslashes", "path\\to\\file", "path-to-file"},
		{"colons", "file:name", "file-name"},
		{"mixed", "A / B \\ C : D", "A---B---C---D"},
		{"no special chars", "simple", "simple"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeFilename(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"report.xlsx", `attachment; filename="report.xlsx"; filename*=UTF-8''report.xlsx`},
		{"КП_ТКП00061.pdf", `attachment; filename="______00061.pdf"; filename*=UTF-8''%D0%9A%D0%9F_%D0%A2%D0%9A%D0%9F00061.pdf`},
		{`a "b".json`, `attachment; filename="a-_b_.json"; filename*=UTF-8''a-%22b%22.json`},
	}
	for _, tt := range tests {
		if got := contentDisposition(tt.input); got != tt.want {
			t.Errorf("contentDisposition(%q) =\n %s\nwant\n %s", tt.input, got, tt.want)
		}
	}
}

func TestExportFilename(t *testing.T) {
	if got := exportFilename("ТКП00061", "xlsx"); got != "КП_ТКП00061.xlsx" {
		t.Errorf("exportFilename() = %q", got)
	}
	if got := exportFilename("", "pdf"); got != "КП.pdf" {
		t.Errorf("exportFilename(empty) = %q", got)
	}
}

func exportRequest(t *testing.T, app *pocketbase.PocketBase, id, format string) *httptest.ResponseRecorder {
	t.Helper()
	handler := HandleQuoteExport(app, testConfig(), config.DefaultExportStyle())
	return serve(t, app, handler, httptest.NewRequest(http.MethodGet, "/", nil), "id", id, "format", format)
}

func TestHandleQuoteExport(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	id := createStoredQuote(t, app)

	tests := []struct {
		format      string
		contentType string
		ext         string
		check       func(t *testing.T, body []byte)
	}{
		{
			format:      "json",
			contentType: "application/json; charset=utf-8",
			ext:         "json",
			check: func(t *testing.T, body []byte) {
				q, report, err := services.LoadQuote(bytes.NewReader(body), services.LoadOptions{})
				if err != nil {
					t.Fatalf("exported file does not load: %v", err)
				}
				if q.Number != "ТКП00061" || len(q.Items) != 3 || report.SkippedCount() != 0 {
					t.Errorf("loaded %q with %d items, skipped %d", q.Number, len(q.Items), report.SkippedCount())
				}
			},
		},
		{
			format:      "excel",
			contentType: xlsxContentType,
			ext:         "xlsx",
			check: func(t *testing.T, body []byte) {
				f, err := excelize.OpenReader(bytes.NewReader(body))
				if err != nil {
					t.Fatalf("result is not valid Excel: %v", err)
				}
				defer f.Close()
				if got, _ := f.GetCellValue("КП ТКП00061", "B6"); got != services.GroupIndent+"Клапан" {
					t.Errorf("B6 = %q", got)
				}
			},
		},
		{
			format:      "pdf",
			contentType: "application/pdf",
			ext:         "pdf",
			check: func(t *testing.T, body []byte) {
				if !bytes.HasPrefix(body, []byte("%PDF-")) {
					t.Errorf("result does not start with PDF header")
				}
			},
		},
		{
			format:      "word",
			contentType: docxContentType,
			ext:         "docx",
			check: func(t *testing.T, body []byte) {
				doc, err := docx.Parse(bytes.NewReader(body), int64(len(body)))
				if err != nil {
					t.Fatalf("result is not valid Word: %v", err)
				}
				if len(doc.Document.Body.Items) == 0 {
					t.Errorf("document body is empty")
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := exportRequest(t, app, id, tt.format)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("content type = %q, want %q", ct, tt.contentType)
			}
			if cd := rec.Header().Get("Content-Disposition"); cd != contentDisposition("КП_ТКП00061."+tt.ext) {
				t.Errorf("content disposition = %q", cd)
			}
			tt.check(t, rec.Body.Bytes())
		})
	}
}

func TestHandleQuoteExport_Errors(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	id := createStoredQuote(t, app)

	assertError(t, exportRequest(t, app, id, "odt"), http.StatusBadRequest, "format")
	assertError(t, exportRequest(t, app, "missing", "pdf"), http.StatusNotFound, "")
}

func TestHandleQuoteLoad_NewQuote(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	doc := `{
		"number": "ТКП00200",
		"date": "31.02.2026",
		"vat": 20,
		"products": [
			{"name": "Клапан", "quantity": 2, "supplier_price": "100"},
			{"name": "Решётка", "quantity": "много", "supplier_price": "5"}
		]
	}`
	req := uploadRequest(t, "/quotes/load", "old.json", []byte(doc), nil)
	rec := serve(t, app, HandleQuoteLoad(app, testConfig()), req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[loadResponse](t, rec)

	if resp.Replaced || !resp.DateReplaced {
		t.Errorf("replaced %v, date replaced %v; want false and true", resp.Replaced, resp.DateReplaced)
	}
	if len(resp.Skipped) != 1 || resp.Skipped[0].Row != 2 || resp.Skipped[0].Field != "quantity" {
		t.Errorf("skipped = %+v, want item 2 quantity", resp.Skipped)
	}
	if len(resp.Quote.Items) != 1 || resp.Quote.Totals.FinalTotal != "200.00" {
		t.Errorf("quote = %+v", resp.Quote)
	}

	if id, _ := services.FindQuoteIDByNumber(app, "ТКП00200"); id == "" || id != resp.Quote.ID {
		t.Errorf("stored id = %q, response id = %q", id, resp.Quote.ID)
	}
	_, toast := decodeToast(t, rec.Header().Get("HX-Trigger"))
	if toast["type"] != "warning" || !strings.Contains(toast["message"], "skipped 1") {
		t.Errorf("toast = %v", toast)
	}
}

func TestHandleQuoteLoad_ReplacesSameNumber(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	id := createStoredQuote(t, app)

	exported := exportRequest(t, app, id, "json").Body.Bytes()
	doc := strings.Replace(string(exported), `"warranty": ""`, `"warranty": "60 мес."`, 1)

	rec := serve(t, app, HandleQuoteLoad(app, testConfig()), uploadRequest(t, "/", "КП_ТКП00061.json", []byte(doc), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[loadResponse](t, rec)
	if !resp.Replaced || resp.Quote.ID != id {
		t.Errorf("replaced %v, id %q; want the existing record %q", resp.Replaced, resp.Quote.ID, id)
	}
	if rec.Header().Get("HX-Trigger") != "" {
		t.Error("a clean load must not raise a toast")
	}

	summaries, err := services.ListQuoteSummaries(app)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 {
		t.Errorf("archive has %d quotes, want 1", len(summaries))
	}
	if q := loadStored(t, app, id); q.Warranty != "60 мес." || len(q.Items) != 3 {
		t.Errorf("stored warranty %q with %d items", q.Warranty, len(q.Items))
	}
}

func TestHandleQuoteLoad_AssignsNumber(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	rec := serve(t, app, HandleQuoteLoad(app, testConfig()), uploadRequest(t, "/", "blank.json", []byte(`{"products":[]}`), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeBody[loadResponse](t, rec); resp.Quote.Number != "ТКП00061" || resp.Quote.Date != "" {
		t.Errorf("number %q, date %q", resp.Quote.Number, resp.Quote.Date)
	}
}

func TestHandleQuoteLoad_Rejects(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	tests := []struct {
		name      string
		filename  string
		content   string
		wantField string
	}{
		{"no file", "", "", "file"},
		{"not json", "a.json", "{number", ""},
		{"bad header value", "a.json", `{"number":"1","vat":"двадцать"}`, "vat"},
		{"vat out of range", "a.json", `{"number":"1","vat":"120"}`, "vat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := uploadRequest(t, "/", tt.filename, []byte(tt.content), nil)
			assertError(t, serve(t, app, HandleQuoteLoad(app, testConfig()), req), http.StatusBadRequest, tt.wantField)
		})
	}

	if summaries, _ := services.ListQuoteSummaries(app); len(summaries) != 0 {
		t.Errorf("rejected loads stored %d quotes", len(summaries))
	}
}

func TestHandleQuotePreview(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	id := createStoredQuote(t, app)
	handler := HandleQuotePreview(app, testConfig(), config.DefaultExportStyle())

	rec := serve(t, app, handler, httptest.NewRequest(http.MethodGet, "/", nil), "id", id)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
	testhelpers.AssertHTMLContains(t, rec.Body.String(),
		"Коммерческое предложение № ТКП00061",
		`<tr class="group"><td colspan="6">Система вентиляции</td></tr>`,
		"Итого: 5 500,00 ₽",
	)

	rec = serve(t, app, handler, httptest.NewRequest(http.MethodGet, "/", nil), "id", "missing")
	assertError(t, rec, http.StatusNotFound, "")
}
