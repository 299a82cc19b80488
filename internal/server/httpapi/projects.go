package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/arcms/internal/server/models"
)

const invalidProjectID = "Invalid project ID"

type createProjectRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
}

type updateProjectRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=1,max=100"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
}

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.GetAllProjects(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"projects": projects})
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	project, err := h.projects.CreateProject(r.Context(), userID(r), models.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"project": project})
}

func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", invalidProjectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	project, err := h.projects.GetProjectByID(r.Context(), id, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"project": project})
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", invalidProjectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req updateProjectRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	project, err := h.projects.UpdateProject(r.Context(), id, userID(r), models.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"project": project})
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", invalidProjectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.projects.DeleteProject(r.Context(), id, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) projectStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", invalidProjectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	stats, err := h.projects.GetProjectStats(r.Context(), id, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"stats": stats})
}
