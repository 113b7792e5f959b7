package models

// Education is a study entry. A nil EndDate means "present".
type Education struct {
	ID           int64  `json:"id" validate:"required"`
	Institution  string `json:"institution" validate:"required"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy"`
	Grade        string `json:"grade"`
	Description  string `json:"description"`
	StartDate    Date   `json:"startDate"`
	EndDate      *Date  `json:"endDate"`
	Current      bool   `json:"current"`
	SortOrder    int    `json:"sortOrder"`
}

// CreateEducationRequest is Education without the id
type CreateEducationRequest struct {
	Institution  string `json:"institution" validate:"required,max=160"`
	Degree       string `json:"degree" validate:"omitempty,max=120"`
	FieldOfStudy string `json:"fieldOfStudy" validate:"omitempty,max=120"`
	Grade        string `json:"grade" validate:"omitempty,max=40"`
	Description  string `json:"description" validate:"omitempty,max=5000"`
	StartDate    Date   `json:"startDate"`
	EndDate      *Date  `json:"endDate"`
	Current      bool   `json:"current"`
	SortOrder    int    `json:"sortOrder" validate:"min=0"`
}

// UpdateEducationRequest is the full entry including its id
type UpdateEducationRequest struct {
	ID int64 `json:"id" validate:"required"`
	CreateEducationRequest
}

// ResourceID implements the id-scoped update contract
func (r UpdateEducationRequest) ResourceID() int64 { return r.ID }
