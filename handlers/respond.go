package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase/core"

	"quotedesk/services"
)

// maxBodySize bounds JSON bodies and uploaded files.
const maxBodySize = 10 << 20

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

// errorStatus maps a core error kind to an HTTP status.
func errorStatus(err error) int {
	if errors.Is(err, services.ErrQuoteNotFound) {
		return http.StatusNotFound
	}
	switch services.GetKind(err) {
	case services.KindValidation, services.KindParse:
		return http.StatusBadRequest
	case services.KindArithmetic:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err under op and writes one clear message. Internal
// failures do not leak their cause to the client.
func respondError(e *core.RequestEvent, op string, err error) error {
	status := errorStatus(err)
	log.Printf("%s: %v", op, err)

	resp := errorResponse{Kind: services.GetKind(err).String()}
	var se *services.Error
	if errors.As(err, &se) {
		resp.Field = se.Field
		resp.Error = se.Message
	} else {
		resp.Error = err.Error()
	}
	switch status {
	case http.StatusNotFound:
		resp.Error = "quote not found"
		resp.Field = ""
	case http.StatusInternalServerError:
		resp.Error = "internal error"
		resp.Field = ""
	}
	return e.JSON(status, resp)
}

// decodeJSON reads the request body into dst and validates its tags.
func decodeJSON(e *core.RequestEvent, dst any) error {
	body := http.MaxBytesReader(e.Response, e.Request.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return services.Parse("invalid JSON body", err).WithField("body")
	}
	return validateRequest(dst)
}

// pathIndex reads a non-negative integer path parameter.
func pathIndex(e *core.RequestEvent, name string) (int, error) {
	raw := e.Request.PathValue(name)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, services.Validationf("invalid %s %q", name, raw).WithField(name)
	}
	return n, nil
}
