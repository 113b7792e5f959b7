package hooks

import (
	"context"

	"github.com/devfolio/portfolio-sync/internal/query"
	"github.com/devfolio/portfolio-sync/internal/services"
)

// Collection is the hook for one id-addressed resource. Every successful
// write invalidates the collection key plus any related keys.
type Collection[T any, C any, U services.Updatable] struct {
	q        *query.Client
	svc      *services.Resource[T, C, U]
	key      query.Key
	related  []query.Key
	opts     query.Options
	mutating query.MutationState
}

// NewCollection creates a collection hook. related keys are invalidated
// together with key on every write.
func NewCollection[T any, C any, U services.Updatable](q *query.Client, svc *services.Resource[T, C, U], key query.Key, opts query.Options, related ...query.Key) *Collection[T, C, U] {
	return &Collection[T, C, U]{q: q, svc: svc, key: key, related: related, opts: opts}
}

// Key returns the collection cache key
func (h *Collection[T, C, U]) Key() query.Key {
	return h.key
}

// List reads the whole collection
func (h *Collection[T, C, U]) List(ctx context.Context) query.Result[[]T] {
	return query.Fetch(ctx, h.q, h.key, h.svc.List, h.opts)
}

// Get reads one entity
func (h *Collection[T, C, U]) Get(ctx context.Context, id int64) query.Result[*T] {
	return query.Fetch(ctx, h.q, h.key.With(id), func(ctx context.Context) (*T, error) {
		return h.svc.Get(ctx, id)
	}, h.opts)
}

// Create adds an item and invalidates the collection
func (h *Collection[T, C, U]) Create(ctx context.Context, in C) (*T, error) {
	defer h.mutating.Begin()()
	return query.Mutate(ctx, h.q, func(ctx context.Context) (*T, error) {
		return h.svc.Create(ctx, in)
	}, h.keys()...)
}

// Update writes an item and invalidates the collection
func (h *Collection[T, C, U]) Update(ctx context.Context, in U) (*T, error) {
	defer h.mutating.Begin()()
	return query.Mutate(ctx, h.q, func(ctx context.Context) (*T, error) {
		return h.svc.Update(ctx, in)
	}, h.keys()...)
}

// Delete removes an item and invalidates the collection
func (h *Collection[T, C, U]) Delete(ctx context.Context, id int64) error {
	defer h.mutating.Begin()()
	_, err := query.Mutate(ctx, h.q, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.svc.Delete(ctx, id)
	}, h.keys()...)
	return err
}

// IsMutating reports whether a write is in flight
func (h *Collection[T, C, U]) IsMutating() bool {
	return h.mutating.Pending()
}

func (h *Collection[T, C, U]) keys() []query.Key {
	return append([]query.Key{h.key}, h.related...)
}
