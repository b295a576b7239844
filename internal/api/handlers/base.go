package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eshaffer321/subtrack/internal/api/dto"
	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

// maxBodyBytes caps request bodies; imports are the largest payload
const maxBodyBytes = 4 << 20

// Base provides shared functionality for all handlers.
type Base struct {
	logger *slog.Logger
}

// NewBase creates a new base handler.
func NewBase(logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{logger: logger}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes data inside a successful envelope.
func (b *Base) WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	b.WriteJSON(w, status, dto.Success(data))
}

// WriteError renders err with the status its code maps to.
func (b *Base) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := dto.FromError(err)
	if status >= http.StatusInternalServerError {
		b.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	b.WriteJSON(w, status, dto.Failure(apiErr))
}

// WriteBadRequest writes a 400 for a malformed request.
func (b *Base) WriteBadRequest(w http.ResponseWriter, message string) {
	b.WriteJSON(w, http.StatusBadRequest, dto.Failure(dto.BadRequestError(message)))
}

// DecodeJSON reads a JSON body into v. An empty body is an error.
func (b *Base) DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// ParseBoolParam parses a boolean query parameter with a default value.
func ParseBoolParam(r *http.Request, name string, defaultVal bool) bool {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// requireParam rejects blank path parameters before they reach a service
func requireParam(value, name string) error {
	if value == "" {
		return recurring.Invalid(name, name+" is required")
	}
	return nil
}
