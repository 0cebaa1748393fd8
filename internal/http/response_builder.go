// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses.
// It provides a fluent API for status, headers and payload so every handler
// answers in the same envelope.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
	raw        []byte
	headers    map[string]string
}

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Payload sets a value to be encoded as the body.
func (b *JSONResponseBuilder) Payload(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Raw sets an already encoded JSON body.
func (b *JSONResponseBuilder) Raw(body []byte) *JSONResponseBuilder {
	b.raw = body
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	body := b.raw
	if body == nil && b.payload != nil {
		var err error
		body, err = json.Marshal(b.payload)
		if err != nil {
			slog.Error("Failed to encode response", "error", err)
			b.statusCode = http.StatusInternalServerError
			body = []byte(`{"error":"failed to encode response"}`)
		}
	}

	if body != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(b.statusCode)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Payload(ErrorBody{Error: message, Code: code})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, "validation_failed", message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal", message)
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later")
}

// NoContent creates a 204 response.
func NoContent() *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusNoContent)
}

var validationErrors = []error{
	core.ErrInvalidType,
	core.ErrEmptyName,
	core.ErrInvalidAmount,
	core.ErrInvalidDate,
	core.ErrInvalidDay,
	core.ErrInvalidMonth,
	core.ErrCrossTypeMove,
	core.ErrReorderMismatch,
	core.ErrDescriptionLong,
}

// FromError maps engine errors to responses: a rejected backup is 400,
// validation sentinels are 422 and anything else is 500 with a generic
// message.
func FromError(err error) *JSONResponseBuilder {
	if errors.Is(err, core.ErrInvalidBackup) {
		return BadRequestError(err.Error())
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return UnprocessableEntityError(err.Error())
		}
	}
	return InternalServerError("internal error")
}
