package models

import (
	"encoding/json"
	"time"
)

type ContentType string

const (
	ContentImage ContentType = "IMAGE"
	ContentText  ContentType = "TEXT"
	ContentModel ContentType = "MODEL"
	ContentAudio ContentType = "AUDIO"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentImage, ContentText, ContentModel, ContentAudio:
		return true
	}
	return false
}

// Transform places a content item relative to the trigger image.
type Transform struct {
	PositionX float64 `json:"positionX"`
	PositionY float64 `json:"positionY"`
	PositionZ float64 `json:"positionZ"`
	RotationX float64 `json:"rotationX"`
	RotationY float64 `json:"rotationY"`
	RotationZ float64 `json:"rotationZ"`
	Scale     float64 `json:"scale"`
}

// DefaultTransform is the identity placement.
func DefaultTransform() Transform {
	return Transform{Scale: 1}
}

type Content struct {
	ID          string      `json:"id"`
	SceneID     string      `json:"sceneId"`
	ContentType ContentType `json:"contentType"`
	FileURL     *string     `json:"fileUrl"`
	FileName    *string     `json:"fileName"`
	FileSize    *int64      `json:"fileSize"`
	TextContent *string     `json:"textContent"`
	Transform
	Config    json.RawMessage `json:"config"`
	CreatedAt time.Time       `json:"createdAt"`
}

type ContentSummary struct {
	ID          string      `json:"id"`
	ContentType ContentType `json:"contentType"`
	FileName    *string     `json:"fileName"`
	FileSize    *int64      `json:"fileSize,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type PublicContent struct {
	ID          string      `json:"id"`
	ContentType ContentType `json:"contentType"`
	FileURL     *string     `json:"fileUrl"`
	TextContent *string     `json:"textContent"`
	Transform
	Config json.RawMessage `json:"config"`
}

func (c *Content) Summary() ContentSummary {
	return ContentSummary{
		ID:          c.ID,
		ContentType: c.ContentType,
		FileName:    c.FileName,
		FileSize:    c.FileSize,
		CreatedAt:   c.CreatedAt,
	}
}

func (c *Content) Public() PublicContent {
	return PublicContent{
		ID:          c.ID,
		ContentType: c.ContentType,
		FileURL:     c.FileURL,
		TextContent: c.TextContent,
		Transform:   c.Transform,
		Config:      c.Config,
	}
}

// ContentInput carries the fields accepted when adding content to a scene.
type ContentInput struct {
	ContentType ContentType
	FileURL     *string
	FileName    *string
	FileSize    *int64
	TextContent *string
	Transform   Transform
	Config      json.RawMessage
}

// Upload describes a presigned direct-to-storage upload.
type Upload struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	PublicURL string `json:"publicUrl"`
}
