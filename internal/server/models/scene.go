package models

import "time"

type Scene struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	ProjectID       string    `json:"projectId"`
	IsActive        bool      `json:"isActive"`
	TriggerImageURL *string   `json:"triggerImageUrl"`
	TriggerImageKey *string   `json:"triggerImageKey"`
	TriggerCompiled bool      `json:"triggerCompiled"`
	TriggerMindFile *string   `json:"triggerMindFile"`
	ViewCount       int64     `json:"viewCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// SceneOwner is a scene together with the owner of its parent project, as
// loaded by ownership checks.
type SceneOwner struct {
	Scene
	ProjectName string
	UserID      string
}

type SceneSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	ViewCount int64     `json:"viewCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// SceneWithContent is a scene with a summary of each content item.
type SceneWithContent struct {
	Scene
	Content []ContentSummary `json:"content"`
}

// ProjectRef identifies the parent project of a scene.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SceneDetail is a scene with its full content and, when loaded, its parent
// project.
type SceneDetail struct {
	Scene
	Content []Content   `json:"content"`
	Project *ProjectRef `json:"project,omitempty"`
}

// PublicScene is the projection served to the AR viewer. It carries only
// what rendering needs.
type PublicScene struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	TriggerImageURL *string         `json:"triggerImageUrl"`
	TriggerMindFile *string         `json:"triggerMindFile"`
	ViewCount       int64           `json:"viewCount"`
	Content         []PublicContent `json:"content"`
}

type SceneInput struct {
	ProjectID string
	Name      string
}

// Nullable is a patch value that distinguishes "absent" from an explicit
// null. Set reports presence; Value is nil for an explicit null.
type Nullable struct {
	Set   bool
	Value *string
}

// ScenePatch carries a partial update. Pointer fields are left unchanged
// when nil; Nullable fields are left unchanged unless Set.
type ScenePatch struct {
	Name            *string
	IsActive        *bool
	TriggerImageURL Nullable
	TriggerImageKey Nullable
	TriggerCompiled *bool
	TriggerMindFile Nullable
}

// Empty reports whether the patch changes nothing.
func (p *ScenePatch) Empty() bool {
	return p.Name == nil && p.IsActive == nil && p.TriggerCompiled == nil &&
		!p.TriggerImageURL.Set && !p.TriggerImageKey.Set && !p.TriggerMindFile.Set
}
