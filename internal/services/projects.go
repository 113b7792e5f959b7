package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/internal/validation"
	"github.com/devfolio/portfolio-sync/pkg/client"
)

// ProjectResource is the CRUD part of the projects endpoints
type ProjectResource = Resource[models.Project, models.CreateProjectRequest, models.UpdateProjectRequest]

// Projects adds skill association to the project CRUD endpoints
type Projects struct {
	*ProjectResource
}

// NewProjects creates the projects service
func NewProjects(api *client.Client) *Projects {
	return &Projects{ProjectResource: NewResource[models.Project, models.CreateProjectRequest, models.UpdateProjectRequest](api, "/me/projects")}
}

// SetSkills replaces the full set of skills linked to a project
func (s *Projects) SetSkills(ctx context.Context, projectID int64, skillIDs []int64) (*models.Project, error) {
	in := models.ProjectSkillsRequest{SkillIDs: skillIDs}
	if in.SkillIDs == nil {
		in.SkillIDs = []int64{}
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return call[models.Project](ctx, s.api, client.Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("%s/%d/skills", s.base, projectID),
		Body:   in,
		Auth:   true,
	})
}
