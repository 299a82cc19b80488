package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/arcms/internal/common"
)

type errorBody struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Details []common.FieldError `json:"details,omitempty"`
}

// writeError is the single place mapping service errors to statuses. The
// full error is logged; the body carries only the client-safe message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)

	args := []any{
		"status", status,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", args...)
	} else {
		h.logger.Warn(r.Context(), "request rejected", args...)
	}

	writeJSON(w, status, body)
}

func classify(err error) (int, errorBody) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{Error: "Validation Error", Message: "Invalid request data", Details: verr.Fields}
	case errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenRevoked):
		return http.StatusUnauthorized, errorBody{Error: "Unauthorized", Message: "Invalid or expired token"}
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, errorBody{Error: "Unauthorized", Message: messageOf(err, "Unauthorized")}
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, errorBody{Error: "Conflict", Message: messageOf(err, "Resource already exists")}
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, errorBody{Error: "Not Found", Message: messageOf(err, "Resource not found")}
	case errors.Is(err, common.ErrorStorageUnavailable):
		return http.StatusServiceUnavailable, errorBody{Error: "Service Unavailable", Message: "File uploads are not configured"}
	}
	return http.StatusInternalServerError, errorBody{Error: "Internal Server Error", Message: "Internal Server Error"}
}

func messageOf(err error, fallback string) string {
	var pe *common.PublicError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return fallback
}
