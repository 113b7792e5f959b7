package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/devfolio/portfolio-sync/internal/validation"
	"github.com/devfolio/portfolio-sync/pkg/client"
)

// Updatable is implemented by update requests; the id selects the PUT target
type Updatable interface {
	ResourceID() int64
}

// Resource is the CRUD endpoint family of one "my data" resource.
// T is the entity, C the create request and U the update request.
type Resource[T any, C any, U Updatable] struct {
	api  *client.Client
	base string
}

// NewResource creates a resource client rooted at base (e.g. "/me/projects")
func NewResource[T any, C any, U Updatable](api *client.Client, base string) *Resource[T, C, U] {
	return &Resource[T, C, U]{api: api, base: base}
}

// Path returns the collection path
func (r *Resource[T, C, U]) Path() string {
	return r.base
}

// List returns the whole collection
func (r *Resource[T, C, U]) List(ctx context.Context) ([]T, error) {
	var out []T
	req := client.Request{Method: http.MethodGet, Path: r.base, Auth: true}
	if err := r.api.Call(ctx, req, &out); err != nil {
		return nil, err
	}
	if err := checkEach(req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one entity by id
func (r *Resource[T, C, U]) Get(ctx context.Context, id int64) (*T, error) {
	return call[T](ctx, r.api, client.Request{Method: http.MethodGet, Path: r.item(id), Auth: true})
}

// Create validates and posts a new entity
func (r *Resource[T, C, U]) Create(ctx context.Context, in C) (*T, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return call[T](ctx, r.api, client.Request{Method: http.MethodPost, Path: r.base, Body: in, Auth: true})
}

// Update validates and replaces an entity through the id-scoped PUT
func (r *Resource[T, C, U]) Update(ctx context.Context, in U) (*T, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return call[T](ctx, r.api, client.Request{Method: http.MethodPut, Path: r.item(in.ResourceID()), Body: in, Auth: true})
}

// Delete removes an entity
func (r *Resource[T, C, U]) Delete(ctx context.Context, id int64) error {
	return r.api.Call(ctx, client.Request{Method: http.MethodDelete, Path: r.item(id), Auth: true}, nil)
}

func (r *Resource[T, C, U]) item(id int64) string {
	return fmt.Sprintf("%s/%d", r.base, id)
}

// call sends req, decodes a single entity and validates it
func call[T any](ctx context.Context, api *client.Client, req client.Request) (*T, error) {
	var out T
	if err := api.Call(ctx, req, &out); err != nil {
		return nil, err
	}
	if err := check(req, out); err != nil {
		return nil, err
	}
	return &out, nil
}

// upload is call for multipart endpoints
func upload[T any](ctx context.Context, api *client.Client, path string, file client.File) (*T, error) {
	req := client.Request{Method: http.MethodPost, Path: path, Auth: true}
	var out T
	if err := api.Upload(ctx, req, file, &out); err != nil {
		return nil, err
	}
	if err := check(req, out); err != nil {
		return nil, err
	}
	return &out, nil
}

func check(req client.Request, v any) error {
	if err := validation.Struct(v); err != nil {
		return fmt.Errorf("%s %s: %w: %w", req.Method, req.Path, client.ErrMalformedResponse, err)
	}
	return nil
}

func checkEach[T any](req client.Request, items []T) error {
	if err := validation.Slice(items); err != nil {
		return fmt.Errorf("%s %s: %w: %w", req.Method, req.Path, client.ErrMalformedResponse, err)
	}
	return nil
}
