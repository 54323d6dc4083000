package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vedran77/feedline/pkg/validator"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError keeps a top-level message for simple clients alongside the
// structured error.
func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"message": message,
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"message": "Validation failed",
		"error": map[string]any{
			"code":    "VALIDATION_ERROR",
			"message": "Validation failed",
			"fields":  errs,
		},
	})
}
