package hooks

import (
	"context"

	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/internal/query"
	"github.com/devfolio/portfolio-sync/internal/services"
	"github.com/devfolio/portfolio-sync/pkg/client"
)

// SkillCategoriesHook is the category collection. Deleting a category
// also drops the cached skills of that category.
type SkillCategoriesHook struct {
	*Collection[models.SkillCategory, models.CreateSkillCategoryRequest, models.UpdateSkillCategoryRequest]
}

// NewSkillCategoriesHook creates the categories hook
func NewSkillCategoriesHook(q *query.Client, svc *services.SkillCategoryResource, opts query.Options) *SkillCategoriesHook {
	return &SkillCategoriesHook{Collection: NewCollection(q, svc, SkillCategoriesKey, opts)}
}

// Delete removes a category and its skills
func (h *SkillCategoriesHook) Delete(ctx context.Context, id int64) error {
	if err := h.Collection.Delete(ctx, id); err != nil {
		return err
	}
	h.q.Remove(SkillsKeyFor(id))
	return nil
}

// SkillsHook reads and batch-writes the skills of one category at a time.
// Writes invalidate that category's skills and the category list, and
// nothing else.
type SkillsHook struct {
	q        *query.Client
	svc      *services.Skills
	uploads  *services.Uploads
	opts     query.Options
	mutating query.MutationState
}

// NewSkillsHook creates the skills hook
func NewSkillsHook(q *query.Client, svc *services.Skills, uploads *services.Uploads, opts query.Options) *SkillsHook {
	return &SkillsHook{q: q, svc: svc, uploads: uploads, opts: opts}
}

// List reads the skills of a category
func (h *SkillsHook) List(ctx context.Context, categoryID int64) query.Result[[]models.Skill] {
	return query.Fetch(ctx, h.q, SkillsKeyFor(categoryID), func(ctx context.Context) ([]models.Skill, error) {
		return h.svc.List(ctx, categoryID)
	}, h.opts)
}

// CreateBatch adds skills to a category in one request
func (h *SkillsHook) CreateBatch(ctx context.Context, categoryID int64, in []models.CreateSkillRequest) ([]models.Skill, error) {
	defer h.mutating.Begin()()
	return query.Mutate(ctx, h.q, func(ctx context.Context) ([]models.Skill, error) {
		return h.svc.CreateBatch(ctx, categoryID, in)
	}, scope(categoryID)...)
}

// UpdateBatch writes several skills of a category in one request
func (h *SkillsHook) UpdateBatch(ctx context.Context, categoryID int64, in []models.UpdateSkillRequest) ([]models.Skill, error) {
	defer h.mutating.Begin()()
	return query.Mutate(ctx, h.q, func(ctx context.Context) ([]models.Skill, error) {
		return h.svc.UpdateBatch(ctx, categoryID, in)
	}, scope(categoryID)...)
}

// DeleteBatch removes several skills of a category in one request
func (h *SkillsHook) DeleteBatch(ctx context.Context, categoryID int64, ids []int64) error {
	defer h.mutating.Begin()()
	_, err := query.Mutate(ctx, h.q, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.svc.DeleteBatch(ctx, categoryID, ids)
	}, scope(categoryID)...)
	return err
}

// UploadIcon uploads a skill icon. The category to invalidate comes from
// the returned skill.
func (h *SkillsHook) UploadIcon(ctx context.Context, skillID int64, file client.File) (*models.Skill, error) {
	defer h.mutating.Begin()()

	skill, err := h.uploads.SkillIcon(ctx, skillID, file)
	if err != nil {
		return nil, err
	}
	h.q.Invalidate(scope(skill.CategoryID)...)
	return skill, nil
}

// IsMutating reports whether a write is in flight
func (h *SkillsHook) IsMutating() bool {
	return h.mutating.Pending()
}

func scope(categoryID int64) []query.Key {
	return []query.Key{SkillsKeyFor(categoryID), SkillCategoriesKey}
}
