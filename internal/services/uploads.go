package services

import (
	"context"
	"fmt"

	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/pkg/client"
)

// Uploads sends files; each call returns the parent entity with the new URL
type Uploads struct {
	api *client.Client
}

// NewUploads creates the upload service
func NewUploads(api *client.Client) *Uploads {
	return &Uploads{api: api}
}

// Avatar uploads the caller's avatar
func (s *Uploads) Avatar(ctx context.Context, file client.File) (*models.Profile, error) {
	return upload[models.Profile](ctx, s.api, "/me/upload/avatar", file)
}

// Resume uploads the caller's resume
func (s *Uploads) Resume(ctx context.Context, file client.File) (*models.Profile, error) {
	return upload[models.Profile](ctx, s.api, "/me/upload/resume", file)
}

// ProjectCover uploads a project's cover image
func (s *Uploads) ProjectCover(ctx context.Context, projectID int64, file client.File) (*models.Project, error) {
	return upload[models.Project](ctx, s.api, fmt.Sprintf("/me/upload/project/%d/cover", projectID), file)
}

// SkillIcon uploads a skill's icon
func (s *Uploads) SkillIcon(ctx context.Context, skillID int64, file client.File) (*models.Skill, error) {
	return upload[models.Skill](ctx, s.api, fmt.Sprintf("/me/upload/skill/%d/icon", skillID), file)
}

// CertificateFile uploads a certificate's file or image
func (s *Uploads) CertificateFile(ctx context.Context, certificateID int64, file client.File) (*models.Certificate, error) {
	return upload[models.Certificate](ctx, s.api, fmt.Sprintf("/me/upload/certificate/%d/file", certificateID), file)
}
