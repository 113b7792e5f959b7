package models

// Project is a portfolio project. Slug is generated by the server and never
// changes; the skill set is written through a separate endpoint.
type Project struct {
	ID            int64   `json:"id" validate:"required"`
	Title         string  `json:"title" validate:"required"`
	Slug          string  `json:"slug" validate:"required"`
	Summary       string  `json:"summary"`
	Description   string  `json:"description"`
	RepoURL       string  `json:"repoUrl"`
	LiveURL       string  `json:"liveUrl"`
	CoverImageURL string  `json:"coverImageUrl"`
	StartDate     Date    `json:"startDate"`
	EndDate       *Date   `json:"endDate"`
	Featured      bool    `json:"featured"`
	SortOrder     int     `json:"sortOrder"`
	Skills        []Skill `json:"skills"`
}

// CreateProjectRequest is Project without server-generated fields
type CreateProjectRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=120"`
	Summary     string `json:"summary" validate:"omitempty,max=300"`
	Description string `json:"description" validate:"omitempty,max=20000"`
	RepoURL     string `json:"repoUrl" validate:"omitempty,url"`
	LiveURL     string `json:"liveUrl" validate:"omitempty,url"`
	StartDate   Date   `json:"startDate"`
	EndDate     *Date  `json:"endDate"`
	Featured    bool   `json:"featured"`
	SortOrder   int    `json:"sortOrder" validate:"min=0"`
}

// UpdateProjectRequest is the full project shape including its id
type UpdateProjectRequest struct {
	ID int64 `json:"id" validate:"required"`
	CreateProjectRequest
}

// ResourceID implements the id-scoped update contract
func (r UpdateProjectRequest) ResourceID() int64 { return r.ID }

// ProjectSkillsRequest replaces the whole set of skills linked to a project
type ProjectSkillsRequest struct {
	SkillIDs []int64 `json:"skillIds" validate:"dive,required"`
}
