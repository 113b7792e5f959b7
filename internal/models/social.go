package models

// SocialLink is ordered only by its SortOrder field
type SocialLink struct {
	ID        int64  `json:"id" validate:"required"`
	Platform  string `json:"platform" validate:"required"`
	URL       string `json:"url" validate:"required"`
	SortOrder int    `json:"sortOrder"`
}

// CreateSocialLinkRequest is SocialLink without the id
type CreateSocialLinkRequest struct {
	Platform  string `json:"platform" validate:"required,max=40"`
	URL       string `json:"url" validate:"required,url"`
	SortOrder int    `json:"sortOrder" validate:"min=0"`
}

// UpdateSocialLinkRequest is the full link shape including its id
type UpdateSocialLinkRequest struct {
	ID int64 `json:"id" validate:"required"`
	CreateSocialLinkRequest
}

// ResourceID implements the id-scoped update contract
func (r UpdateSocialLinkRequest) ResourceID() int64 { return r.ID }
