package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"quotedesk/config"
	"quotedesk/services"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

func testConfig() config.Config {
	return config.Config{
		Quote:      config.DefaultQuoteDefaults(),
		Terms:      config.DefaultTermsDefaults(),
		NumberBase: 60,
	}
}

// serve runs handler against req and returns the recorded response.
// pathValues are pairs of name and value.
func serve(t *testing.T, app *pocketbase.PocketBase, handler func(*core.RequestEvent) error, req *http.Request, pathValues ...string) *httptest.ResponseRecorder {
	t.Helper()
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var r io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// uploadRequest builds a multipart request with a "file" part and the given
// extra form fields.
func uploadRequest(t *testing.T, target, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(content)
	}
	for k, v := range fields {
		w.WriteField(k, v)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("response is not valid JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return v
}

// assertError checks the status and the field of an error response.
func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, field string) errorResponse {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, status, rec.Body.String())
	}
	resp := decodeBody[errorResponse](t, rec)
	if resp.Field != field {
		t.Errorf("field = %q, want %q (error %q)", resp.Field, field, resp.Error)
	}
	return resp
}

// createStoredQuote saves ТКП00061 with one group and two products
// (5 × 1000 and 2 × 250, no discount or markup) and returns its id.
func createStoredQuote(t *testing.T, app *pocketbase.PocketBase) string {
	t.Helper()
	q := services.NewQuote("ТКП00061", config.DefaultQuoteDefaults())
	for _, item := range []services.LineItem{
		services.NewGroupHeader("Система вентиляции"),
		services.NewProduct("K100", services.GroupIndent+"Клапан", 5, "шт.", decimal.NewFromInt(1000)),
		services.NewProduct("", services.GroupIndent+"Решётка", 2, "шт.", decimal.NewFromInt(250)),
	} {
		if err := q.AddItem(item); err != nil {
			t.Fatal(err)
		}
	}
	id, err := services.SaveQuoteRecord(app, "", q)
	if err != nil {
		t.Fatalf("SaveQuoteRecord() error = %v", err)
	}
	return id
}

func loadStored(t *testing.T, app *pocketbase.PocketBase, id string) *services.Quote {
	t.Helper()
	q, _, err := services.LoadQuoteRecord(app, id, services.LoadOptions{})
	if err != nil {
		t.Fatalf("LoadQuoteRecord() error = %v", err)
	}
	return q
}
