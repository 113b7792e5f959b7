package hooks

import (
	"context"
	"time"

	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/internal/query"
	"github.com/devfolio/portfolio-sync/internal/services"
)

// PortfoliosHook reads the public gallery. Reads are never gated.
type PortfoliosHook struct {
	q        *query.Client
	svc      *services.Portfolios
	gallery  query.Options
	detail   query.Options
	mutating query.MutationState
}

// NewPortfoliosHook creates the public portfolio hook
func NewPortfoliosHook(q *query.Client, svc *services.Portfolios, galleryStale, detailStale time.Duration) *PortfoliosHook {
	return &PortfoliosHook{
		q:       q,
		svc:     svc,
		gallery: query.Options{StaleTime: galleryStale},
		detail:  query.Options{StaleTime: detailStale, Retry: 1},
	}
}

// List reads the gallery
func (h *PortfoliosHook) List(ctx context.Context) query.Result[[]models.PortfolioSummary] {
	return query.Fetch(ctx, h.q, PortfoliosKey, h.svc.List, h.gallery)
}

// Get reads one public portfolio
func (h *PortfoliosHook) Get(ctx context.Context, slug string) query.Result[*models.PortfolioDetail] {
	return query.Fetch(ctx, h.q, PortfoliosKey.With(slug), func(ctx context.Context) (*models.PortfolioDetail, error) {
		return h.svc.Get(ctx, slug)
	}, h.detail)
}

// GetProject reads one project of a public portfolio
func (h *PortfoliosHook) GetProject(ctx context.Context, slug, projectSlug string) query.Result[*models.Project] {
	return query.Fetch(ctx, h.q, PortfoliosKey.With(slug, "projects", projectSlug), func(ctx context.Context) (*models.Project, error) {
		return h.svc.GetProject(ctx, slug, projectSlug)
	}, h.detail)
}

// Contact sends a message to a portfolio owner; nothing cached changes
func (h *PortfoliosHook) Contact(ctx context.Context, slug string, in models.ContactRequest) error {
	defer h.mutating.Begin()()
	return h.svc.Contact(ctx, slug, in)
}

// IsMutating reports whether a contact message is being sent
func (h *PortfoliosHook) IsMutating() bool {
	return h.mutating.Pending()
}
