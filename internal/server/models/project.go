package models

import "time"

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProjectListItem is a project as returned by the project list, with a
// summary of each scene.
type ProjectListItem struct {
	Project
	Scenes []SceneSummary `json:"scenes"`
}

// ProjectDetail is a single project with its scenes and, for each scene,
// a summary of its content.
type ProjectDetail struct {
	Project
	Scenes []SceneWithContent `json:"scenes"`
}

// ProjectInput carries the fields accepted on create.
type ProjectInput struct {
	Name        string
	Description *string
}

// ProjectPatch carries a partial update; nil fields are left unchanged.
type ProjectPatch struct {
	Name        *string
	Description *string
}

// ProjectStats is a local aggregation over a loaded ProjectDetail.
type ProjectStats struct {
	ProjectID    string    `json:"projectId"`
	ProjectName  string    `json:"projectName"`
	TotalScenes  int       `json:"totalScenes"`
	ActiveScenes int       `json:"activeScenes"`
	TotalViews   int64     `json:"totalViews"`
	TotalContent int       `json:"totalContent"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Stats aggregates scene and content counters of the project.
func (p *ProjectDetail) Stats() *ProjectStats {
	s := &ProjectStats{
		ProjectID:   p.ID,
		ProjectName: p.Name,
		TotalScenes: len(p.Scenes),
		CreatedAt:   p.CreatedAt,
	}
	for _, scene := range p.Scenes {
		if scene.IsActive {
			s.ActiveScenes++
		}
		s.TotalViews += scene.ViewCount
		s.TotalContent += len(scene.Content)
	}
	return s
}

// Result is the confirmation returned by delete operations.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
