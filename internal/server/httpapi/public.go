package httpapi

import (
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/arcms/internal/server/metrics"
)

// publicScene serves an active scene to the AR viewer without auth.
func (h *Handler) publicScene(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", invalidSceneID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	scene, err := h.scenes.GetPublicScene(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	metrics.SceneViewed()
	writeJSON(w, http.StatusOK, envelope{"scene": scene})
}

// viewer resolves the viewer link for an active scene. It goes through the
// same lookup as publicScene and so also counts a view.
func (h *Handler) viewer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "sceneId", invalidSceneID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	scene, err := h.scenes.GetPublicScene(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	metrics.SceneViewed()
	writeJSON(w, http.StatusOK, envelope{
		"viewerUrl": h.viewerURL + "?scene=" + url.QueryEscape(scene.ID),
		"scene":     envelope{"id": scene.ID, "name": scene.Name},
	})
}
