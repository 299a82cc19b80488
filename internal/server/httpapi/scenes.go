package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/arcms/internal/common"
	"github.com/dmitrijs2005/arcms/internal/server/models"
	"github.com/dmitrijs2005/arcms/internal/server/services"
)

const invalidSceneID = "Invalid scene ID"

// nullableString tells an absent field apart from an explicit null.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	return json.Unmarshal(b, &n.Value)
}

func (n nullableString) model() models.Nullable {
	return models.Nullable{Set: n.Set, Value: n.Value}
}

type createSceneRequest struct {
	ProjectID string `json:"projectId" validate:"required,uuid"`
	Name      string `json:"name" validate:"required,max=100"`
}

type updateSceneRequest struct {
	Name            *string        `json:"name" validate:"omitnil,min=1,max=100"`
	IsActive        *bool          `json:"isActive"`
	TriggerImageURL nullableString `json:"triggerImageUrl"`
	TriggerImageKey nullableString `json:"triggerImageKey"`
	TriggerCompiled *bool          `json:"triggerCompiled"`
	TriggerMindFile nullableString `json:"triggerMindFile"`
}

type addContentRequest struct {
	ContentType string          `json:"contentType" validate:"required,oneof=IMAGE TEXT MODEL AUDIO"`
	FileURL     *string         `json:"fileUrl" validate:"omitnil,url"`
	FileName    *string         `json:"fileName" validate:"omitnil,max=255"`
	FileSize    *int64          `json:"fileSize" validate:"omitnil,min=0"`
	TextContent *string         `json:"textContent" validate:"omitnil,max=5000"`
	PositionX   float64         `json:"positionX"`
	PositionY   float64         `json:"positionY"`
	PositionZ   float64         `json:"positionZ"`
	RotationX   float64         `json:"rotationX"`
	RotationY   float64         `json:"rotationY"`
	RotationZ   float64         `json:"rotationZ"`
	Scale       *float64        `json:"scale" validate:"omitnil,gt=0"`
	Config      json.RawMessage `json:"config"`
}

type uploadURLRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=trigger content"`
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	Size        int64  `json:"size" validate:"required,gt=0"`
}

func (h *Handler) listScenes(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId", invalidProjectID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	scenes, err := h.scenes.GetScenesByProject(r.Context(), projectID, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"scenes": scenes})
}

func (h *Handler) createScene(w http.ResponseWriter, r *http.Request) {
	var req createSceneRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	scene, err := h.scenes.CreateScene(r.Context(), userID(r), models.SceneInput{
		ProjectID: req.ProjectID,
		Name:      req.Name,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"scene": scene})
}

func (h *Handler) getScene(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", invalidSceneID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	scene, err := h.scenes.GetSceneByID(r.Context(), id, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"scene": scene})
}

func (h *Handler) updateScene(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", invalidSceneID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req updateSceneRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validateURL("triggerImageUrl", req.TriggerImageURL); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validateURL("triggerMindFile", req.TriggerMindFile); err != nil {
		h.writeError(w, r, err)
		return
	}

	scene, err := h.scenes.UpdateScene(r.Context(), id, userID(r), models.ScenePatch{
		Name:            req.Name,
		IsActive:        req.IsActive,
		TriggerImageURL: req.TriggerImageURL.model(),
		TriggerImageKey: req.TriggerImageKey.model(),
		TriggerCompiled: req.TriggerCompiled,
		TriggerMindFile: req.TriggerMindFile.model(),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"scene": scene})
}

func (h *Handler) deleteScene(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", invalidSceneID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.scenes.DeleteScene(r.Context(), id, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) toggleScene(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", invalidSceneID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	scene, err := h.scenes.ToggleSceneActive(r.Context(), id, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	message := "Scene deactivated"
	if scene.IsActive {
		message = "Scene activated"
	}
	writeJSON(w, http.StatusOK, envelope{"scene": scene, "message": message})
}

func (h *Handler) addContent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", invalidSceneID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req addContentRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	t := models.Transform{
		PositionX: req.PositionX,
		PositionY: req.PositionY,
		PositionZ: req.PositionZ,
		RotationX: req.RotationX,
		RotationY: req.RotationY,
		RotationZ: req.RotationZ,
		Scale:     1,
	}
	if req.Scale != nil {
		t.Scale = *req.Scale
	}

	content, err := h.scenes.AddContent(r.Context(), id, userID(r), models.ContentInput{
		ContentType: models.ContentType(req.ContentType),
		FileURL:     req.FileURL,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		TextContent: req.TextContent,
		Transform:   t,
		Config:      req.Config,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"content": content})
}

func (h *Handler) deleteContent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", invalidSceneID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	contentID, err := pathID(r, "contentId", "Invalid content ID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.scenes.DeleteContent(r.Context(), id, contentID, userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) createUploadURL(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", invalidSceneID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req uploadURLRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	upload, err := h.scenes.CreateUploadURL(r.Context(), id, userID(r), services.UploadRequest{
		Kind:        req.Kind,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        req.Size,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, upload)
}

// validateURL checks a nullable URL field when it carries a value.
func (h *Handler) validateURL(field string, v nullableString) error {
	if !v.Set || v.Value == nil {
		return nil
	}
	if err := h.validate.Var(*v.Value, "url"); err != nil {
		return common.NewValidationError(field, "must be a valid URL")
	}
	return nil
}
