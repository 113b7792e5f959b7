package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/internal/validation"
	"github.com/devfolio/portfolio-sync/pkg/client"
)

// ErrEmptyBatch is returned for batch calls without items
var ErrEmptyBatch = errors.New("batch must contain at least one item")

// SkillCategoryResource is the CRUD endpoint family for skill categories
type SkillCategoryResource = Resource[models.SkillCategory, models.CreateSkillCategoryRequest, models.UpdateSkillCategoryRequest]

// NewSkillCategories creates the skill categories service
func NewSkillCategories(api *client.Client) *SkillCategoryResource {
	return NewResource[models.SkillCategory, models.CreateSkillCategoryRequest, models.UpdateSkillCategoryRequest](api, "/me/skill-categories")
}

// Skills operates on N skills within one category. The API has no
// single-skill mutation; every write is a batch scoped by category id.
type Skills struct {
	api *client.Client
}

// NewSkills creates the skills service
func NewSkills(api *client.Client) *Skills {
	return &Skills{api: api}
}

// CategoryPath returns the skills collection path of a category
func CategoryPath(categoryID int64) string {
	return fmt.Sprintf("/me/skill-categories/%d/skills", categoryID)
}

// List returns the skills of a category
func (s *Skills) List(ctx context.Context, categoryID int64) ([]models.Skill, error) {
	req := client.Request{Method: http.MethodGet, Path: CategoryPath(categoryID), Auth: true}
	var out []models.Skill
	if err := s.api.Call(ctx, req, &out); err != nil {
		return nil, err
	}
	if err := checkEach(req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBatch creates skills in a category
func (s *Skills) CreateBatch(ctx context.Context, categoryID int64, in []models.CreateSkillRequest) ([]models.Skill, error) {
	if len(in) == 0 {
		return nil, ErrEmptyBatch
	}
	if err := validation.Slice(in); err != nil {
		return nil, err
	}
	return s.batch(ctx, http.MethodPost, categoryID, in)
}

// UpdateBatch updates skills in a category
func (s *Skills) UpdateBatch(ctx context.Context, categoryID int64, in []models.UpdateSkillRequest) ([]models.Skill, error) {
	if len(in) == 0 {
		return nil, ErrEmptyBatch
	}
	if err := validation.Slice(in); err != nil {
		return nil, err
	}
	return s.batch(ctx, http.MethodPut, categoryID, in)
}

// DeleteBatch removes skills from a category
func (s *Skills) DeleteBatch(ctx context.Context, categoryID int64, ids []int64) error {
	if len(ids) == 0 {
		return ErrEmptyBatch
	}
	return s.api.Call(ctx, client.Request{
		Method: http.MethodDelete,
		Path:   CategoryPath(categoryID) + "/batch",
		Body:   ids,
		Auth:   true,
	}, nil)
}

func (s *Skills) batch(ctx context.Context, method string, categoryID int64, body any) ([]models.Skill, error) {
	req := client.Request{Method: method, Path: CategoryPath(categoryID) + "/batch", Body: body, Auth: true}
	var out []models.Skill
	if err := s.api.Call(ctx, req, &out); err != nil {
		return nil, err
	}
	if err := checkEach(req, out); err != nil {
		return nil, err
	}
	return out, nil
}
