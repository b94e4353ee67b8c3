package handlers

import (
	"encoding/json"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// SetToast sets the HX-Trigger response header so the browser shows a toast
// notification. An existing HX-Trigger object keeps its other events.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	trigger := map[string]any{}
	if existing := e.Response.Header().Get("HX-Trigger"); existing != "" {
		if err := json.Unmarshal([]byte(existing), &trigger); err != nil {
			log.Printf("toast: existing HX-Trigger is not valid JSON, overwriting: %v", err)
			trigger = map[string]any{}
		}
	}
	trigger["showToast"] = map[string]string{
		"message": message,
		"type":    toastType,
	}

	data, err := json.Marshal(trigger)
	if err != nil {
		log.Printf("toast: failed to marshal HX-Trigger JSON: %v", err)
		return
	}
	e.Response.Header().Set("HX-Trigger", string(data))
}

// importToast reports an import summary, as a warning when rows were skipped.
func importToast(e *core.RequestEvent, summary string, skipped int) {
	if skipped > 0 {
		SetToast(e, "warning", summary)
		return
	}
	SetToast(e, "success", summary)
}
