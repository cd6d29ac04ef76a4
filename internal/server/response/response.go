// Package response writes the JSON envelope used by the development server.
// A body always has both keys: data is set on success, error on failure.
// The publish client in internal/transport decodes the same shape.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/agentstation/learnstream/pkg/errors"
)

// Response is the envelope.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error is the failure half of the envelope.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Codes that do not follow from the status text.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeInvalidEvent = "INVALID_EVENT"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// Success wraps data.
func Success(data any) Response { return Response{Data: data} }

// Fail wraps an error.
func Fail(code, message, details string) Response {
	return Response{Error: &Error{Code: code, Message: message, Details: details}}
}

// JSON writes resp with status. The header is already sent when encoding
// fails, so the error is dropped.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// Status writes an error envelope whose code and message are derived from
// the status text, e.g. 404 gives NOT_FOUND and "Not Found".
func Status(w http.ResponseWriter, status int, details string) {
	JSON(w, status, Fail(codeFor(status), http.StatusText(status), details))
}

func codeFor(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return CodeInternal
	}
	return strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text))
}

// OK writes data with 200.
func OK(w http.ResponseWriter, data any) { JSON(w, http.StatusOK, Success(data)) }

// Accepted writes data with 202.
func Accepted(w http.ResponseWriter, data any) { JSON(w, http.StatusAccepted, Success(data)) }

// BadRequest writes a 400.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail(CodeBadRequest, message, details))
}

// InvalidEvent writes a 400 for a body that does not decode as an AppEvent.
func InvalidEvent(w http.ResponseWriter, details string) {
	JSON(w, http.StatusBadRequest, Fail(CodeInvalidEvent, "Invalid event", details))
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusUnauthorized, Fail(codeFor(http.StatusUnauthorized), message, details))
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail(codeFor(http.StatusNotFound), message, details))
}

// MethodNotAllowed writes a 405 naming the rejected method.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	Status(w, http.StatusMethodNotAllowed, fmt.Sprintf("%s is not supported for this endpoint", method))
}

// PayloadTooLarge writes a 413 naming the limit.
func PayloadTooLarge(w http.ResponseWriter, limit int64) {
	JSON(w, http.StatusRequestEntityTooLarge, Fail(codeFor(http.StatusRequestEntityTooLarge),
		"Request body too large", fmt.Sprintf("limit is %d bytes", limit)))
}

// RateLimited writes a 429.
func RateLimited(w http.ResponseWriter, details string) {
	JSON(w, http.StatusTooManyRequests, Fail(CodeRateLimited, "Rate limit exceeded", details))
}

// InternalError writes a 500. err is never exposed to the caller.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail(CodeInternal, "Internal server error", ""))
}

// ServiceUnavailable writes a 503.
func ServiceUnavailable(w http.ResponseWriter, details string) {
	Status(w, http.StatusServiceUnavailable, details)
}

// ErrorFromType picks the response for err: decode failures are invalid
// events, validation failures bad requests, unauthorized errors 401 and API
// errors keep their 4xx status. Everything else is a 500.
func ErrorFromType(w http.ResponseWriter, err error) {
	var (
		decodeErr *errors.DecodeError
		validErr  *errors.ValidationError
		apiErr    *errors.APIError
	)
	switch {
	case errors.As(err, &decodeErr):
		InvalidEvent(w, decodeErr.Error())
	case errors.As(err, &validErr):
		BadRequest(w, validErr.Error(), "")
	case errors.IsUnauthorized(err):
		Unauthorized(w, "Unauthorized", err.Error())
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		Status(w, apiErr.StatusCode, apiErr.Error())
	default:
		InternalError(w, err)
	}
}
