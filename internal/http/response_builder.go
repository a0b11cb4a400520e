package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budgetlens/internal/core"
	"budgetlens/internal/log"
	"budgetlens/internal/ports"
	"budgetlens/internal/report"
)

// JSONResponseBuilder builds a JSON response with a fluent API.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func ErrorResponse(statusCode int, message, field string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message, Field: field})
}

// errBadRequest marks malformed requests (bad JSON, bad path values).
var errBadRequest = errors.New("bad request")

type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }
func (e badRequest) Unwrap() error { return errBadRequest }

// StatusFor maps a service error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrNotFound),
		errors.Is(err, report.ErrUnknownChart),
		errors.Is(err, report.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, ports.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Internal failures are logged and their detail
// is kept out of the response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	var ve *core.ValidationError

	switch {
	case errors.As(err, &ve):
		ErrorResponse(status, ve.Err.Error(), ve.Field).Write(w)
	case status == http.StatusInternalServerError:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.FieldError, err, log.FieldPath, r.URL.Path)
		ErrorResponse(status, "internal server error", "").Write(w)
	case errors.Is(err, ports.ErrNotFound):
		ErrorResponse(status, "not found", "").Write(w)
	default:
		ErrorResponse(status, err.Error(), "").Write(w)
	}
}
