package services

import (
	"context"
	"net/http"

	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/internal/validation"
	"github.com/devfolio/portfolio-sync/pkg/client"
)

// Profile reads and updates the caller's own profile
type Profile struct {
	api *client.Client
}

// NewProfile creates the profile service
func NewProfile(api *client.Client) *Profile {
	return &Profile{api: api}
}

// Get returns the caller's profile
func (s *Profile) Get(ctx context.Context) (*models.Profile, error) {
	return call[models.Profile](ctx, s.api, client.Request{Method: http.MethodGet, Path: "/me/profile", Auth: true})
}

// Update applies a partial update
func (s *Profile) Update(ctx context.Context, in models.UpdateProfileRequest) (*models.Profile, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return call[models.Profile](ctx, s.api, client.Request{Method: http.MethodPut, Path: "/me/profile", Body: in, Auth: true})
}

// UpdateContactEmail changes the public contact address
func (s *Profile) UpdateContactEmail(ctx context.Context, in models.ContactEmailRequest) (*models.Profile, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return call[models.Profile](ctx, s.api, client.Request{
		Method: http.MethodPut,
		Path:   "/me/settings/contact-email",
		Body:   in,
		Auth:   true,
	})
}
