package main

import (
	"log"
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"quotedesk/collections"
	"quotedesk/config"
	"quotedesk/handlers"
	"quotedesk/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	style := config.DefaultExportStyle()
	if cfg.StyleFile != "" {
		if style, err = config.LoadExportStyleFile(cfg.StyleFile); err != nil {
			log.Fatalf("config: %v", err)
		}
	}

	app := pocketbase.New()

	// Create collections and seed the sample quote on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.MigrateQuoteFields(app); err != nil {
			log.Printf("Warning: quote fields migration failed: %v", err)
		}
		if err := services.SeedSampleQuote(app, cfg); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.GET("/static/{path...}", apis.Static(os.DirFS("./static"), false))

		// ── Quotes ───────────────────────────────────────────────
		se.Router.GET("/quotes", handlers.HandleQuoteList(app))
		se.Router.POST("/quotes", handlers.HandleQuoteCreate(app, cfg))
		se.Router.POST("/quotes/load", handlers.HandleQuoteLoad(app, cfg))
		se.Router.GET("/quotes/{id}", handlers.HandleQuoteView(app, cfg))
		se.Router.POST("/quotes/{id}/header", handlers.HandleQuoteHeader(app, cfg))
		se.Router.DELETE("/quotes/{id}", handlers.HandleQuoteDelete(app))
		se.Router.POST("/quotes/{id}/recalculate", handlers.HandleQuoteRecalculate(app, cfg))

		// ── Line items ───────────────────────────────────────────
		se.Router.POST("/quotes/{id}/items", handlers.HandleItemAdd(app, cfg))
		se.Router.PATCH("/quotes/{id}/items/{index}", handlers.HandleItemUpdate(app, cfg))
		se.Router.DELETE("/quotes/{id}/items/{index}", handlers.HandleItemDelete(app, cfg))
		se.Router.POST("/quotes/{id}/items/move", handlers.HandleItemMove(app, cfg))
		se.Router.POST("/quotes/{id}/items/clear", handlers.HandleItemsClear(app, cfg))
		se.Router.POST("/quotes/{id}/items/paste", handlers.HandleItemPaste(app, cfg))
		se.Router.GET("/quotes/{id}/items/copy", handlers.HandleItemCopy(app, cfg))

		// ── Import ───────────────────────────────────────────────
		se.Router.POST("/quotes/{id}/import/columns", handlers.HandleImportColumns())
		se.Router.POST("/quotes/{id}/import/spreadsheet", handlers.HandleImportSpreadsheet(app, cfg))
		se.Router.POST("/quotes/{id}/import/document", handlers.HandleImportDocument(app, cfg))
		se.Router.POST("/quotes/{id}/import/report", handlers.HandleImportSkipReport())

		// ── Files and exports ────────────────────────────────────
		se.Router.GET("/quotes/{id}/export/{format}", handlers.HandleQuoteExport(app, cfg, style))
		se.Router.GET("/quotes/{id}/preview", handlers.HandleQuotePreview(app, cfg, style))

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
