package models

// SkillCategory owns an ordered set of skills
type SkillCategory struct {
	ID        int64   `json:"id" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	SortOrder int     `json:"sortOrder"`
	Skills    []Skill `json:"skills"`
}

// CreateSkillCategoryRequest is SkillCategory without the id and skills
type CreateSkillCategoryRequest struct {
	Name      string `json:"name" validate:"required,max=80"`
	SortOrder int    `json:"sortOrder" validate:"min=0"`
}

// UpdateSkillCategoryRequest is the full category shape including its id
type UpdateSkillCategoryRequest struct {
	ID int64 `json:"id" validate:"required"`
	CreateSkillCategoryRequest
}

// ResourceID implements the id-scoped update contract
func (r UpdateSkillCategoryRequest) ResourceID() int64 { return r.ID }

// Skill belongs to exactly one category. Skill ids are globally unique.
type Skill struct {
	ID         int64   `json:"id" validate:"required"`
	CategoryID int64   `json:"categoryId"`
	Name       string  `json:"name" validate:"required"`
	Level      int     `json:"level" validate:"min=0,max=100"`
	IconURL    *string `json:"iconUrl"`
	SortOrder  int     `json:"sortOrder"`
}

// CreateSkillRequest is one element of a batch create
type CreateSkillRequest struct {
	Name      string  `json:"name" validate:"required,max=60"`
	Level     int     `json:"level" validate:"min=0,max=100"`
	Icon      *string `json:"icon"`
	SortOrder int     `json:"sortOrder" validate:"min=0"`
}

// UpdateSkillRequest is one element of a batch update
type UpdateSkillRequest struct {
	ID int64 `json:"id" validate:"required"`
	CreateSkillRequest
}
