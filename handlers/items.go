package handlers

import (
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"quotedesk/config"
	"quotedesk/services"
)

// itemRequest describes a new line item. Quantity defaults to 1 and the
// unit to the quote default; an empty markup uses the quote markup.
type itemRequest struct {
	Kind          string `json:"kind" validate:"omitempty,oneof=product group_header"`
	Article       string `json:"article" validate:"max=128"`
	Name          string `json:"name" validate:"required,max=1000"`
	Quantity      *int   `json:"quantity" validate:"omitempty,min=0"`
	Unit          string `json:"unit" validate:"max=32"`
	SupplierPrice string `json:"supplier_price" validate:"omitempty,decimal"`
	Markup        string `json:"markup" validate:"omitempty,decimal"`
	// Index inserts before that position; nil appends.
	Index *int `json:"index" validate:"omitempty,min=0"`
}

func (r itemRequest) lineItem() services.LineItem {
	if r.Kind == services.KindGroupHeader.String() {
		return services.NewGroupHeader(strings.TrimSpace(r.Name))
	}
	qty := 1
	if r.Quantity != nil {
		qty = *r.Quantity
	}
	item := services.NewProduct(strings.TrimSpace(r.Article), r.Name, qty, strings.TrimSpace(r.Unit), decimalOrZero(r.SupplierPrice))
	if r.Unit == "" {
		// Let the quote fill its own default unit.
		item.Unit = ""
	}
	if r.Markup != "" {
		item = item.WithMarkup(decimalOrZero(r.Markup))
	}
	return item
}

// HandleItemAdd appends or inserts a line item.
func HandleItemAdd(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")

		var req itemRequest
		if err := decodeJSON(e, &req); err != nil {
			return respondError(e, "item_add", err)
		}

		q, report, err := loadQuote(app, cfg, id)
		if err != nil {
			return respondError(e, "item_add", err)
		}

		if req.Index != nil {
			err = q.InsertItem(*req.Index, req.lineItem())
		} else {
			err = q.AddItem(req.lineItem())
		}
		if err != nil {
			return respondError(e, "item_add", err)
		}
		return saveAndRespond(e, app, "item_add", id, q, report, http.StatusCreated)
	}
}

// itemPatch changes only the fields present. An empty markup string
// removes the per-line override.
type itemPatch struct {
	Article       *string `json:"article" validate:"omitempty,max=128"`
	Name          *string `json:"name" validate:"omitempty,min=1,max=1000"`
	Quantity      *int    `json:"quantity" validate:"omitempty,min=0"`
	Unit          *string `json:"unit" validate:"omitempty,max=32"`
	SupplierPrice *string `json:"supplier_price" validate:"omitempty,decimal"`
	Markup        *string `json:"markup"`
}

func (p itemPatch) apply(item services.LineItem) (services.LineItem, error) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if item.IsGroupHeader() {
		return item, nil
	}
	if p.Article != nil {
		item.Article = strings.TrimSpace(*p.Article)
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		item.Unit = strings.TrimSpace(*p.Unit)
	}
	if p.SupplierPrice != nil {
		item.SupplierPrice = decimalOrZero(*p.SupplierPrice)
	}
	if p.Markup != nil {
		if strings.TrimSpace(*p.Markup) == "" {
			item.Markup = decimal.NullDecimal{}
		} else {
			m, err := services.ParseUserDecimal("markup", *p.Markup)
			if err != nil {
				return item, err
			}
			item = item.WithMarkup(m)
		}
	}
	return item, nil
}

// HandleItemUpdate edits the item at {index}; its prices are recomputed.
func HandleItemUpdate(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		index, err := pathIndex(e, "index")
		if err != nil {
			return respondError(e, "item_update", err)
		}

		var patch itemPatch
		if err := decodeJSON(e, &patch); err != nil {
			return respondError(e, "item_update", err)
		}

		q, report, err := loadQuote(app, cfg, id)
		if err != nil {
			return respondError(e, "item_update", err)
		}
		if index >= len(q.Items) {
			return respondError(e, "item_update", services.Validationf("index %d out of range", index).WithField("index"))
		}

		item, err := patch.apply(q.Items[index])
		if err != nil {
			return respondError(e, "item_update", err)
		}
		if err := q.UpdateItem(index, item); err != nil {
			return respondError(e, "item_update", err)
		}
		return saveAndRespond(e, app, "item_update", id, q, report, http.StatusOK)
	}
}

// HandleItemDelete removes the item at {index}.
func HandleItemDelete(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		index, err := pathIndex(e, "index")
		if err != nil {
			return respondError(e, "item_delete", err)
		}

		q, report, err := loadQuote(app, cfg, id)
		if err != nil {
			return respondError(e, "item_delete", err)
		}
		if err := q.RemoveItem(index); err != nil {
			return respondError(e, "item_delete", err)
		}
		return saveAndRespond(e, app, "item_delete", id, q, report, http.StatusOK)
	}
}

// HandleItemsClear removes every item, keeping the header and terms.
func HandleItemsClear(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		q, report, err := loadQuote(app, cfg, id)
		if err != nil {
			return respondError(e, "items_clear", err)
		}
		app.Logger().Info("quote items cleared", "quote", q.Number, "items", len(q.Items), "products", q.ProductCount())
		q.Clear()
		return saveAndRespond(e, app, "items_clear", id, q, report, http.StatusOK)
	}
}

type moveRequest struct {
	From *int `json:"from" validate:"required,min=0"`
	To   *int `json:"to" validate:"required,min=0"`
}

// HandleItemMove moves one item to a new position.
func HandleItemMove(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")

		var req moveRequest
		if err := decodeJSON(e, &req); err != nil {
			return respondError(e, "item_move", err)
		}

		q, report, err := loadQuote(app, cfg, id)
		if err != nil {
			return respondError(e, "item_move", err)
		}
		if err := q.MoveItem(*req.From, *req.To); err != nil {
			return respondError(e, "item_move", err)
		}
		return saveAndRespond(e, app, "item_move", id, q, report, http.StatusOK)
	}
}

type pasteRequest struct {
	Text string `json:"text" validate:"required"`
}

// importResponse reports an import together with the updated quote.
type importResponse struct {
	Quote    quoteView             `json:"quote"`
	Imported int                   `json:"imported"`
	Skipped  []services.SkippedRow `json:"skipped"`
	Dropped  int                   `json:"dropped"`
	Format   string                `json:"format,omitempty"`
	Summary  string                `json:"summary"`
}

// appendAndRespond adds the normalised rows of result to the stored quote.
func appendAndRespond(e *core.RequestEvent, app *pocketbase.PocketBase, cfg config.Config, op, id string, result services.ImportResult) error {
	q, report, err := loadQuote(app, cfg, id)
	if err != nil {
		return respondError(e, op, err)
	}

	before := len(q.Items)
	result.Skipped = append(result.Skipped, q.AppendImported(result)...)
	imported := len(q.Items) - before
	result.Items = q.Items[before:]

	if _, err := services.SaveQuoteRecord(app, id, q); err != nil {
		return respondError(e, op, err)
	}
	view, err := newQuoteView(id, q, report)
	if err != nil {
		return respondError(e, op, err)
	}

	skipped := result.Skipped
	if skipped == nil {
		skipped = []services.SkippedRow{}
	}
	summary := result.Summary()
	app.Logger().Info("quote import",
		"op", op,
		"quote", q.Number,
		"imported", imported,
		"skipped", len(skipped),
		"dropped", result.Dropped,
	)
	importToast(e, summary, len(skipped))

	return e.JSON(http.StatusOK, importResponse{
		Quote:    view,
		Imported: imported,
		Skipped:  skipped,
		Dropped:  result.Dropped,
		Format:   result.Format,
		Summary:  summary,
	})
}

// HandleItemPaste appends rows copied as tab-separated text.
func HandleItemPaste(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req pasteRequest
		if err := decodeJSON(e, &req); err != nil {
			return respondError(e, "item_paste", err)
		}
		result := services.ParseClipboard(req.Text, importOptions(cfg))
		return appendAndRespond(e, app, cfg, "item_paste", e.Request.PathValue("id"), result)
	}
}

// HandleItemCopy returns the items as tab-separated text for the clipboard.
func HandleItemCopy(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q, _, err := loadQuote(app, cfg, e.Request.PathValue("id"))
		if err != nil {
			return respondError(e, "item_copy", err)
		}
		return e.Blob(http.StatusOK, "text/tab-separated-values; charset=utf-8", []byte(services.FormatClipboard(q.Items)))
	}
}
