package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/internal/validation"
	"github.com/devfolio/portfolio-sync/pkg/client"
)

// Portfolios reads the public gallery; none of these need a token
type Portfolios struct {
	api *client.Client
}

// NewPortfolios creates the public portfolio service
func NewPortfolios(api *client.Client) *Portfolios {
	return &Portfolios{api: api}
}

// List returns the public gallery
func (s *Portfolios) List(ctx context.Context) ([]models.PortfolioSummary, error) {
	req := client.Request{Method: http.MethodGet, Path: "/portfolios"}
	var out []models.PortfolioSummary
	if err := s.api.Call(ctx, req, &out); err != nil {
		return nil, err
	}
	if err := checkEach(req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a full public portfolio
func (s *Portfolios) Get(ctx context.Context, slug string) (*models.PortfolioDetail, error) {
	return call[models.PortfolioDetail](ctx, s.api, client.Request{
		Method: http.MethodGet,
		Path:   "/portfolios/" + url.PathEscape(slug),
	})
}

// GetProject returns one project of a public portfolio
func (s *Portfolios) GetProject(ctx context.Context, profileSlug, projectSlug string) (*models.Project, error) {
	return call[models.Project](ctx, s.api, client.Request{
		Method: http.MethodGet,
		Path:   "/portfolios/" + url.PathEscape(profileSlug) + "/projects/" + url.PathEscape(projectSlug),
	})
}

// Contact sends a message to the portfolio owner
func (s *Portfolios) Contact(ctx context.Context, slug string, in models.ContactRequest) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	return s.api.Call(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "/portfolios/" + url.PathEscape(slug) + "/contact",
		Body:   in,
	}, nil)
}
