package httpapi

import (
	"net/http"
	"time"
)

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	writeJSON(w, http.StatusOK, envelope{
		"status":    "ok",
		"timestamp": now.UTC().Format(time.RFC3339Nano),
		"uptime":    now.Sub(h.started).Seconds(),
	})
}
