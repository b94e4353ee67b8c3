package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"quotedesk/config"
	"quotedesk/services"
)

func loadOptions(cfg config.Config) services.LoadOptions {
	return services.LoadOptions{DefaultUnit: cfg.Quote.Unit}
}

func importOptions(cfg config.Config) services.ImportOptions {
	return services.ImportOptions{GroupMarkers: cfg.GroupMarkers, DefaultUnit: cfg.Quote.Unit}
}

// loadQuote reads the stored quote q. Items that could not be read back are
// not part of q, so saving it removes them; callers that save pass the
// report on to the response.
func loadQuote(app *pocketbase.PocketBase, cfg config.Config, id string) (*services.Quote, services.LoadReport, error) {
	q, report, err := services.LoadQuoteRecord(app, id, loadOptions(cfg))
	if err != nil {
		return nil, report, err
	}
	if n := report.SkippedCount(); n > 0 {
		app.Logger().Warn("stored quote items unreadable", "quote", q.Number, "skipped", n)
	}
	return q, report, nil
}

// saveAndRespond stores q under id and writes its view with the given
// status. Stored items listed in report are gone after the save and are
// announced with a warning toast.
func saveAndRespond(e *core.RequestEvent, app *pocketbase.PocketBase, op, id string, q *services.Quote, report services.LoadReport, status int) error {
	savedID, err := services.SaveQuoteRecord(app, id, q)
	if err != nil {
		return respondError(e, op, err)
	}
	if n := report.SkippedCount(); n > 0 {
		SetToast(e, "warning", fmt.Sprintf("removed %d unreadable stored items", n))
	}
	view, err := newQuoteView(savedID, q, report)
	if err != nil {
		return respondError(e, op, err)
	}
	return e.JSON(status, view)
}

// HandleQuoteList returns the archived quotes, newest number first.
func HandleQuoteList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		summaries, err := services.ListQuoteSummaries(app)
		if err != nil {
			return respondError(e, "quote_list", err)
		}
		return e.JSON(http.StatusOK, summaries)
	}
}

// HandleQuoteCreate starts a new quote with the next number and the
// configured defaults.
func HandleQuoteCreate(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		number, err := services.NextQuoteNumber(app, cfg.NumberBase)
		if err != nil {
			return respondError(e, "quote_create", err)
		}
		q := services.NewQuote(number, cfg.Quote)
		q.DeliveryTime = cfg.Terms.DeliveryTime
		q.Warranty = cfg.Terms.Warranty
		q.SelfPickupWarehouse = cfg.Terms.SelfPickupWarehouse
		return saveAndRespond(e, app, "quote_create", "", q, services.LoadReport{}, http.StatusCreated)
	}
}

// HandleQuoteView returns a quote with its items and totals.
func HandleQuoteView(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		q, report, err := loadQuote(app, cfg, id)
		if err != nil {
			return respondError(e, "quote_view", err)
		}
		view, err := newQuoteView(id, q, report)
		if err != nil {
			return respondError(e, "quote_view", err)
		}
		return e.JSON(http.StatusOK, view)
	}
}

// headerRequest replaces the quote parameters and terms.
type headerRequest struct {
	Number              string `json:"number" validate:"required,max=64"`
	Date                string `json:"date" validate:"omitempty,datetime=02.01.2006"`
	DiscountPercent     string `json:"discount_from_supplier" validate:"required,percent"`
	MarkupPercent       string `json:"markup_for_client" validate:"required,percent"`
	VATPercent          string `json:"vat" validate:"required,percent"`
	DeliveryTerms       string `json:"delivery_terms" validate:"max=2000"`
	SelfPickupWarehouse string `json:"self_pickup_warehouse" validate:"max=500"`
	Warranty            string `json:"warranty" validate:"max=200"`
	DeliveryTime        string `json:"delivery_time" validate:"max=200"`
	IncludeDelivery     bool   `json:"include_delivery"`
	DeliveryCost        string `json:"delivery_cost" validate:"omitempty,decimal"`
}

// HandleQuoteHeader updates number, date, pricing parameters and terms.
// Items are repriced with the new parameters.
func HandleQuoteHeader(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")

		var req headerRequest
		if err := decodeJSON(e, &req); err != nil {
			return respondError(e, "quote_header", err)
		}

		number := strings.TrimSpace(req.Number)
		if number == "" {
			return respondError(e, "quote_header", services.Validation("is required").WithField("number"))
		}

		q, report, err := loadQuote(app, cfg, id)
		if err != nil {
			return respondError(e, "quote_header", err)
		}

		// Tags already checked the number format.
		discount, _ := services.ParseUserDecimal("discount_from_supplier", req.DiscountPercent)
		markup, _ := services.ParseUserDecimal("markup_for_client", req.MarkupPercent)
		vat, _ := services.ParseUserDecimal("vat", req.VATPercent)
		if err := q.SetParameters(discount, markup, vat); err != nil {
			return respondError(e, "quote_header", err)
		}

		q.Number = number
		q.Date = nil
		if req.Date != "" {
			t, err := time.ParseInLocation(services.DateLayout, req.Date, time.Local)
			if err != nil {
				return respondError(e, "quote_header", services.Parse("invalid date", err).WithField("date"))
			}
			q.Date = &t
		}
		q.DeliveryTerms = req.DeliveryTerms
		q.SelfPickupWarehouse = req.SelfPickupWarehouse
		q.Warranty = req.Warranty
		q.DeliveryTime = req.DeliveryTime
		q.IncludeDelivery = req.IncludeDelivery
		q.DeliveryCost = services.Round2(decimalOrZero(req.DeliveryCost))

		if otherID, err := services.FindQuoteIDByNumber(app, q.Number); err != nil {
			return respondError(e, "quote_header", err)
		} else if otherID != "" && otherID != id {
			return respondError(e, "quote_header",
				services.Validationf("number %s is already used", q.Number).WithField("number"))
		}

		return saveAndRespond(e, app, "quote_header", id, q, report, http.StatusOK)
	}
}

func decimalOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, _ := services.ParseUserDecimal("", s)
	return d
}

// HandleQuoteDelete removes a quote and its items.
func HandleQuoteDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := services.DeleteQuoteRecord(app, e.Request.PathValue("id")); err != nil {
			return respondError(e, "quote_delete", err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleQuoteRecalculate refreshes every cached price and stores the result.
func HandleQuoteRecalculate(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		q, report, err := loadQuote(app, cfg, id)
		if err != nil {
			return respondError(e, "quote_recalculate", err)
		}
		if err := q.Recalculate(); err != nil {
			return respondError(e, "quote_recalculate", err)
		}
		return saveAndRespond(e, app, "quote_recalculate", id, q, report, http.StatusOK)
	}
}
