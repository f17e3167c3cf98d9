package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"partner-edge/internal/domain"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v with the given status. Headers already set on w (CORS) are kept.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, message string, details any) {
	JSON(w, status, ErrorBody{Error: message, Details: details})
}

// Err maps a classified error to its status and caller-safe message.
// Unclassified errors are reported as a generic 500.
func Err(w http.ResponseWriter, err error) {
	var e *domain.Error
	if !errors.As(err, &e) {
		Error(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	Error(w, e.Status(), e.Message, e.Details)
}
