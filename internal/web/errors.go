package web

// errors.go turns service errors into HTTP responses.
//
//  1. The handler calls respondError with the error.
//  2. statusFor picks the HTTP status from the error type.
//  3. core.MapError supplies the user message and support code.
//  4. The technical error is logged with the request id; the client only
//     sees the mapped message.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/ledger/internal/core"
	"github.com/JonMunkholm/ledger/internal/logging"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string             `json:"error"`
	Message string             `json:"message"`
	Action  string             `json:"action,omitempty"`
	Code    string             `json:"code"`
	Result  *core.ImportResult `json:"result,omitempty"`
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	var (
		readErr  *core.ReadError
		maxBytes *http.MaxBytesError
	)
	switch {
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrEmptyWorkbook),
		errors.Is(err, core.ErrNoRows),
		errors.As(err, &readErr):
		return http.StatusBadRequest
	}

	// Malformed files surface as parser errors without a sentinel.
	code := core.MapError(err).Code
	if strings.HasPrefix(code, "FILE") || strings.HasPrefix(code, "VAL") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped error response. result is
// attached for import failures so the client can show failed rows.
func respondError(w http.ResponseWriter, r *http.Request, err error, result *core.ImportResult) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		err = core.ErrFileTooLarge
	}

	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "10")
	}

	writeJSON(w, r, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Result:  result,
	})
}

// respondBadRequest writes a 400 for malformed request parameters.
func respondBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	logging.FromContext(r.Context()).Warn("bad request", "path", r.URL.Path, "reason", message)
	writeJSON(w, r, http.StatusBadRequest, ErrorResponse{
		Error:   message,
		Message: message,
		Code:    "REQ001",
	})
}
