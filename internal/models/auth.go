package models

// LoginRequest holds credentials for /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterRequest holds the payload for /auth/register
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	Token string `json:"token" validate:"required"`
}
