package models

// Profile is the authenticated user's portfolio identity.
// One profile exists per user; it is created at registration.
type Profile struct {
	ID           int64  `json:"id" validate:"required"`
	Email        string `json:"email,omitempty"`
	FullName     string `json:"fullName"`
	Headline     string `json:"headline"`
	Bio          string `json:"bio"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
	Location     string `json:"location"`
	AvatarURL    string `json:"avatarUrl"`
	ResumeURL    string `json:"resumeUrl"`
	Slug         string `json:"slug"`
}

// UpdateProfileRequest is a partial update; nil fields are left untouched
type UpdateProfileRequest struct {
	FullName *string `json:"fullName,omitempty" validate:"omitempty,min=2,max=100"`
	Headline *string `json:"headline,omitempty" validate:"omitempty,max=160"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=5000"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=120"`
	Slug     *string `json:"slug,omitempty" validate:"omitempty,min=3,max=60,slug"`
}

// ContactEmailRequest changes the public contact address
type ContactEmailRequest struct {
	ContactEmail string `json:"contactEmail" validate:"required,email"`
}

// ContactRequest is a message sent to a public portfolio owner
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"omitempty,max=200"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}
