package models

// Experience is a work history entry. A nil EndDate means "present".
type Experience struct {
	ID          int64  `json:"id" validate:"required"`
	Company     string `json:"company" validate:"required"`
	Position    string `json:"position" validate:"required"`
	Location    string `json:"location"`
	Description string `json:"description"`
	StartDate   Date   `json:"startDate"`
	EndDate     *Date  `json:"endDate"`
	Current     bool   `json:"current"`
	SortOrder   int    `json:"sortOrder"`
}

// CreateExperienceRequest is Experience without the id
type CreateExperienceRequest struct {
	Company     string `json:"company" validate:"required,max=120"`
	Position    string `json:"position" validate:"required,max=120"`
	Location    string `json:"location" validate:"omitempty,max=120"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	StartDate   Date   `json:"startDate"`
	EndDate     *Date  `json:"endDate"`
	Current     bool   `json:"current"`
	SortOrder   int    `json:"sortOrder" validate:"min=0"`
}

// UpdateExperienceRequest is the full entry including its id
type UpdateExperienceRequest struct {
	ID int64 `json:"id" validate:"required"`
	CreateExperienceRequest
}

// ResourceID implements the id-scoped update contract
func (r UpdateExperienceRequest) ResourceID() int64 { return r.ID }
