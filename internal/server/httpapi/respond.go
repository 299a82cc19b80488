package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/arcms/internal/common"
)

const maxBodyBytes = 1 << 20

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object of at most maxBodyBytes into dst
// and runs its validate tags.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return common.NewValidationError("body", "must not exceed 1 MiB")
		case errors.Is(err, io.EOF):
			return common.NewValidationError("body", "is required")
		default:
			return common.NewValidationError("body", "must be a valid JSON object")
		}
	}
	if dec.More() {
		return common.NewValidationError("body", "must contain a single JSON object")
	}
	return h.validateStruct(dst)
}

// pathID reads a uuid path parameter.
func pathID(r *http.Request, name, message string) (string, error) {
	id := chi.URLParam(r, name)
	if _, err := uuid.Parse(id); err != nil {
		return "", common.NewValidationError(name, message)
	}
	return id, nil
}
