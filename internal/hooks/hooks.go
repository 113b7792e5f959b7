// Package hooks binds the resource services to the query cache: one hook
// per resource with cached reads, pessimistic writes and the cache keys
// each write invalidates.
package hooks

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/internal/query"
	"github.com/devfolio/portfolio-sync/internal/services"
)

// Cache keys. Detail keys extend the collection key with the id, so
// invalidating a collection also invalidates its details.
var (
	ProfileKey         = query.NewKey("profile")
	ProjectsKey        = query.NewKey("projects")
	ExperienceKey      = query.NewKey("experience")
	EducationKey       = query.NewKey("education")
	CertificatesKey    = query.NewKey("certificates")
	SocialLinksKey     = query.NewKey("social-links")
	SkillCategoriesKey = query.NewKey("skill-categories")
	SkillsKey          = query.NewKey("skills")
	PortfoliosKey      = query.NewKey("portfolios")
)

// SkillsKeyFor returns the skills key of one category
func SkillsKeyFor(categoryID int64) query.Key {
	return SkillsKey.With(categoryID)
}

// Session is what hooks need from the session store
type Session interface {
	IsAuthenticated() bool
	UpdateUser(user *models.Profile)
}

// Config holds staleness windows per resource family
type Config struct {
	ProfileStaleTime    time.Duration
	SkillsStaleTime     time.Duration
	CategoriesStaleTime time.Duration
	DataStaleTime       time.Duration
	GalleryStaleTime    time.Duration
	DetailStaleTime     time.Duration
}

// DefaultConfig returns the standard stale times
func DefaultConfig() Config {
	return Config{
		ProfileStaleTime:    5 * time.Minute,
		SkillsStaleTime:     5 * time.Minute,
		CategoriesStaleTime: 5 * time.Minute,
		DataStaleTime:       time.Minute,
		GalleryStaleTime:    30 * time.Second,
		DetailStaleTime:     time.Minute,
	}
}

// private returns options for "my data" reads: gated on the session and
// never retried, since a failure there is almost always a 401
func private(session Session, stale time.Duration) query.Options {
	return query.Options{StaleTime: stale, Enabled: session.IsAuthenticated}
}

// Hooks groups every resource hook
type Hooks struct {
	Profile         *ProfileHook
	Projects        *ProjectsHook
	Experience      *Collection[models.Experience, models.CreateExperienceRequest, models.UpdateExperienceRequest]
	Education       *Collection[models.Education, models.CreateEducationRequest, models.UpdateEducationRequest]
	Certificates    *CertificatesHook
	SocialLinks     *Collection[models.SocialLink, models.CreateSocialLinkRequest, models.UpdateSocialLinkRequest]
	SkillCategories *SkillCategoriesHook
	Skills          *SkillsHook
	Portfolios      *PortfoliosHook
}

// New creates all hooks
func New(q *query.Client, svc *services.Services, session Session, cfg Config) *Hooks {
	data := private(session, cfg.DataStaleTime)

	return &Hooks{
		Profile:    NewProfileHook(q, svc.Profile, svc.Uploads, session, private(session, cfg.ProfileStaleTime)),
		Projects:   NewProjectsHook(q, svc.Projects, svc.Uploads, data),
		Experience: NewCollection(q, svc.Experience, ExperienceKey, data),
		// Deleting an education entry unlinks certificates pointing at it
		Education:       NewCollection(q, svc.Education, EducationKey, data, CertificatesKey),
		Certificates:    NewCertificatesHook(q, svc.Certificates, svc.Uploads, data),
		SocialLinks:     NewCollection(q, svc.SocialLinks, SocialLinksKey, data),
		SkillCategories: NewSkillCategoriesHook(q, svc.SkillCategories, private(session, cfg.CategoriesStaleTime)),
		Skills:          NewSkillsHook(q, svc.Skills, svc.Uploads, private(session, cfg.SkillsStaleTime)),
		Portfolios:      NewPortfoliosHook(q, svc.Portfolios, cfg.GalleryStaleTime, cfg.DetailStaleTime),
	}
}

// IsMutating reports whether any hook has a write in flight
func (h *Hooks) IsMutating() bool {
	return h.Profile.IsMutating() ||
		h.Projects.IsMutating() ||
		h.Experience.IsMutating() ||
		h.Education.IsMutating() ||
		h.Certificates.IsMutating() ||
		h.SocialLinks.IsMutating() ||
		h.SkillCategories.IsMutating() ||
		h.Skills.IsMutating()
}

// Prefetch warms the cache with every "my data" collection in parallel.
// Reads are gated, so it does nothing for an anonymous session.
func (h *Hooks) Prefetch(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return h.Profile.Get(ctx).Err })
	g.Go(func() error { return h.Projects.List(ctx).Err })
	g.Go(func() error { return h.Experience.List(ctx).Err })
	g.Go(func() error { return h.Education.List(ctx).Err })
	g.Go(func() error { return h.Certificates.List(ctx).Err })
	g.Go(func() error { return h.SocialLinks.List(ctx).Err })
	g.Go(func() error { return h.SkillCategories.List(ctx).Err })

	return g.Wait()
}
