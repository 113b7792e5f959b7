package hooks

import (
	"context"

	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/internal/query"
	"github.com/devfolio/portfolio-sync/internal/services"
	"github.com/devfolio/portfolio-sync/pkg/client"
)

// ProfileHook reads and writes the caller's profile. Writes also refresh
// the session user so both views agree.
type ProfileHook struct {
	q        *query.Client
	svc      *services.Profile
	uploads  *services.Uploads
	session  Session
	opts     query.Options
	mutating query.MutationState
}

// NewProfileHook creates the profile hook
func NewProfileHook(q *query.Client, svc *services.Profile, uploads *services.Uploads, session Session, opts query.Options) *ProfileHook {
	return &ProfileHook{q: q, svc: svc, uploads: uploads, session: session, opts: opts}
}

// Get reads the profile
func (h *ProfileHook) Get(ctx context.Context) query.Result[*models.Profile] {
	return query.Fetch(ctx, h.q, ProfileKey, h.svc.Get, h.opts)
}

// Update applies a partial update
func (h *ProfileHook) Update(ctx context.Context, in models.UpdateProfileRequest) (*models.Profile, error) {
	return h.write(ctx, func(ctx context.Context) (*models.Profile, error) {
		return h.svc.Update(ctx, in)
	})
}

// UpdateContactEmail changes the public contact address
func (h *ProfileHook) UpdateContactEmail(ctx context.Context, in models.ContactEmailRequest) (*models.Profile, error) {
	return h.write(ctx, func(ctx context.Context) (*models.Profile, error) {
		return h.svc.UpdateContactEmail(ctx, in)
	})
}

// UploadAvatar uploads a new avatar
func (h *ProfileHook) UploadAvatar(ctx context.Context, file client.File) (*models.Profile, error) {
	return h.write(ctx, func(ctx context.Context) (*models.Profile, error) {
		return h.uploads.Avatar(ctx, file)
	})
}

// UploadResume uploads a new resume
func (h *ProfileHook) UploadResume(ctx context.Context, file client.File) (*models.Profile, error) {
	return h.write(ctx, func(ctx context.Context) (*models.Profile, error) {
		return h.uploads.Resume(ctx, file)
	})
}

// IsMutating reports whether a write is in flight
func (h *ProfileHook) IsMutating() bool {
	return h.mutating.Pending()
}

func (h *ProfileHook) write(ctx context.Context, fn func(context.Context) (*models.Profile, error)) (*models.Profile, error) {
	defer h.mutating.Begin()()

	profile, err := query.Mutate(ctx, h.q, fn, ProfileKey)
	if err != nil {
		return nil, err
	}
	h.session.UpdateUser(profile)
	return profile, nil
}
