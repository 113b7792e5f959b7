package models

// PortfolioSummary is one card of the public gallery
type PortfolioSummary struct {
	Slug         string   `json:"slug" validate:"required"`
	FullName     string   `json:"fullName"`
	Headline     string   `json:"headline"`
	Location     string   `json:"location"`
	AvatarURL    string   `json:"avatarUrl"`
	ProjectCount int      `json:"projectCount"`
	TopSkills    []string `json:"topSkills"`
}

// PortfolioDetail is the full public aggregate assembled by the backend
type PortfolioDetail struct {
	Profile         Profile         `json:"profile"`
	Projects        []Project       `json:"projects"`
	Experience      []Experience    `json:"experience"`
	Education       []Education     `json:"education"`
	SkillCategories []SkillCategory `json:"skillCategories"`
	Certificates    []Certificate   `json:"certificates"`
	SocialLinks     []SocialLink    `json:"socialLinks"`
}
