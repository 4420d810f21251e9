// Package shared holds response helpers used by every HTTP handler so that
// error payloads and status mapping stay uniform across the API.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "memberdesk/pkg/domain-errors"
)

// ErrorResponse is the wire shape of every error the API returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON serializes v with the given status. Encoding failures are
// swallowed; headers are already gone by then.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps a domain error code to an HTTP status and writes the
// standard error payload. Unknown errors become a 500 with a generic
// message so internals never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	status, ok := statusByCode[code]
	if !ok {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   string(dErrors.CodeInternal),
			Message: "internal error",
		})
		return
	}
	WriteJSON(w, status, ErrorResponse{
		Error:   string(code),
		Message: err.Error(),
	})
}

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeInvalidInput:       http.StatusBadRequest,
	dErrors.CodeMalformedValue:     http.StatusUnprocessableEntity,
	dErrors.CodeNoScopes:           http.StatusBadRequest,
	dErrors.CodeNotFound:           http.StatusNotFound,
	dErrors.CodeConflict:           http.StatusConflict,
	dErrors.CodeLookupInProgress:   http.StatusConflict,
	dErrors.CodeUnavailable:        http.StatusServiceUnavailable,
	dErrors.CodeInvariantViolation: http.StatusUnprocessableEntity,
}
