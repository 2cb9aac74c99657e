package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"social-graph-backend/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// respondServiceError maps domain error kinds to HTTP status codes.
// Unexpected errors are logged and hidden behind a generic message.
func respondServiceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(w, err.Error(), "not_found", http.StatusNotFound)
	case errors.Is(err, services.ErrConflict):
		respondError(w, err.Error(), "conflict", http.StatusConflict)
	case errors.Is(err, services.ErrInvalidState):
		respondError(w, err.Error(), "invalid_state", http.StatusConflict)
	case errors.Is(err, services.ErrForbidden):
		respondError(w, err.Error(), "forbidden", http.StatusForbidden)
	case errors.Is(err, services.ErrInvalidInput):
		respondError(w, err.Error(), "invalid_input", http.StatusBadRequest)
	case errors.Is(err, services.ErrUnauthorized):
		respondError(w, err.Error(), "unauthorized", http.StatusUnauthorized)
	default:
		log.Error().Err(err).Msg(msg)
		respondError(w, msg, "internal", http.StatusInternalServerError)
	}
}

// decodeAndValidate decodes the JSON body into dst and runs its validate tags
func decodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("validation failed: %s", strings.Join(fields, ", "))
		}
		return err
	}
	return nil
}

// validateID checks that a path parameter is a UUID
func validateID(name, value string) error {
	if err := validate.Var(value, "required,uuid"); err != nil {
		return fmt.Errorf("%s must be a valid id", name)
	}
	return nil
}

// pagination parses limit and offset query parameters, ignoring bad values
func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	return limit, offset
}
