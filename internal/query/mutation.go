package query

import (
	"context"
	"sync/atomic"
)

// Mutate runs fn once and, only after it succeeds, invalidates keys.
// The cache is never patched ahead of the server's answer.
func Mutate[T any](ctx context.Context, c *Client, fn func(context.Context) (T, error), keys ...Key) (T, error) {
	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	c.Invalidate(keys...)
	return v, nil
}

// MutationState counts writes in flight, e.g. to show "saving..."
type MutationState struct {
	pending atomic.Int64
}

// Begin marks a write as started; call the returned func when it ends
func (m *MutationState) Begin() func() {
	m.pending.Add(1)
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			m.pending.Add(-1)
		}
	}
}

// Pending reports whether any write is in flight
func (m *MutationState) Pending() bool {
	return m.pending.Load() > 0
}
