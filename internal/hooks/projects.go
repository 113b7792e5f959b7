package hooks

import (
	"context"

	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/internal/query"
	"github.com/devfolio/portfolio-sync/internal/services"
	"github.com/devfolio/portfolio-sync/pkg/client"
)

// ProjectsHook adds skill linking and cover uploads to the project collection
type ProjectsHook struct {
	*Collection[models.Project, models.CreateProjectRequest, models.UpdateProjectRequest]
	svc     *services.Projects
	uploads *services.Uploads
}

// NewProjectsHook creates the projects hook
func NewProjectsHook(q *query.Client, svc *services.Projects, uploads *services.Uploads, opts query.Options) *ProjectsHook {
	return &ProjectsHook{
		Collection: NewCollection(q, svc.ProjectResource, ProjectsKey, opts),
		svc:        svc,
		uploads:    uploads,
	}
}

// SetSkills replaces the skills linked to a project
func (h *ProjectsHook) SetSkills(ctx context.Context, projectID int64, skillIDs []int64) (*models.Project, error) {
	defer h.mutating.Begin()()
	return query.Mutate(ctx, h.q, func(ctx context.Context) (*models.Project, error) {
		return h.svc.SetSkills(ctx, projectID, skillIDs)
	}, ProjectsKey)
}

// UploadCover uploads a project's cover image
func (h *ProjectsHook) UploadCover(ctx context.Context, projectID int64, file client.File) (*models.Project, error) {
	defer h.mutating.Begin()()
	return query.Mutate(ctx, h.q, func(ctx context.Context) (*models.Project, error) {
		return h.uploads.ProjectCover(ctx, projectID, file)
	}, ProjectsKey)
}

// CertificatesHook adds file uploads to the certificate collection
type CertificatesHook struct {
	*Collection[models.Certificate, models.CreateCertificateRequest, models.UpdateCertificateRequest]
	uploads *services.Uploads
}

// NewCertificatesHook creates the certificates hook
func NewCertificatesHook(q *query.Client, svc *services.CertificateResource, uploads *services.Uploads, opts query.Options) *CertificatesHook {
	return &CertificatesHook{
		Collection: NewCollection(q, svc, CertificatesKey, opts),
		uploads:    uploads,
	}
}

// UploadFile uploads a certificate's file or image
func (h *CertificatesHook) UploadFile(ctx context.Context, certificateID int64, file client.File) (*models.Certificate, error) {
	defer h.mutating.Begin()()
	return query.Mutate(ctx, h.q, func(ctx context.Context) (*models.Certificate, error) {
		return h.uploads.CertificateFile(ctx, certificateID, file)
	}, CertificatesKey)
}
