// Package query is a small cache-and-mutate client for server state.
// Reads go through Fetch, which serves fresh data from memory, dedupes
// concurrent requests and refetches after invalidation. Writes go through
// Mutate, which only touches the cache after the server confirmed them.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/devfolio/portfolio-sync/pkg/client"
)

const (
	defaultRetryDelay = time.Second
	maxRetryDelay     = 30 * time.Second
	fetchTimeout      = time.Minute
)

type fetcher func(ctx context.Context) (any, error)

type entry struct {
	key        Key
	data       any
	err        error
	updatedAt  time.Time
	accessedAt time.Time
	// invalid marks data as outdated regardless of age
	invalid bool
	// gen changes on every invalidation; a fetch that started under an
	// older gen stores its data but leaves the entry invalid
	gen      uint64
	fetching int
	refetch  func()
}

// Client is an in-memory query cache
type Client struct {
	logger     *slog.Logger
	now        func() time.Time
	retryDelay time.Duration

	mu      sync.Mutex
	seq     uint64
	entries map[string]*entry
	subs    map[string]map[int]func()
	nextSub int

	group singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures the client
type Option func(*Client)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithRetryDelay sets the default first backoff delay
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// New creates an empty cache
func New(opts ...Option) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		logger:     slog.Default(),
		now:        time.Now,
		retryDelay: defaultRetryDelay,
		entries:    make(map[string]*entry),
		subs:       make(map[string]map[int]func()),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close stops background refreshes and waits for them to finish
func (c *Client) Close() {
	c.cancel()
	c.wg.Wait()
}

// Fetch returns the value for key. Fresh data is served from memory;
// data that is merely old is served and refreshed in the background;
// missing, failed or invalidated data is fetched before returning.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (T, error), opts Options) Result[T] {
	if !opts.enabled() {
		r := Peek[T](c, key)
		if r.Status == StatusLoading {
			r.Status = StatusIdle
		}
		return r
	}

	fetch := func(ctx context.Context) (any, error) {
		return fn(ctx)
	}

	c.mu.Lock()
	e := c.entryLocked(key)
	now := c.now()
	e.accessedAt = now
	e.refetch = func() {
		if opts.enabled() {
			c.background(key, fetch, opts)
		}
	}

	if !e.updatedAt.IsZero() && !e.invalid && e.err == nil {
		r := resultOf[T](e)
		fresh := now.Sub(e.updatedAt) < opts.StaleTime
		c.mu.Unlock()

		if !fresh {
			c.background(key, fetch, opts)
		}
		return r
	}
	c.mu.Unlock()

	v, err := c.run(ctx, key, fetch, opts)
	if err != nil {
		r := Peek[T](c, key)
		r.Status = StatusError
		r.Err = err
		return r
	}

	data, _ := v.(T)
	return Result[T]{Data: data, Status: StatusSuccess, UpdatedAt: c.now()}
}

// Peek returns what the cache holds for key without fetching
func Peek[T any](c *Client, key Key) Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return Result[T]{Status: StatusIdle}
	}
	return resultOf[T](e)
}

// SetData stores v under key as fresh data
func SetData[T any](c *Client, key Key, v T) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.data = v
	e.err = nil
	e.updatedAt = c.now()
	e.invalid = false
	e.gen = c.nextGenLocked()
	subs := c.subscribersLocked(key)
	c.mu.Unlock()

	notify(subs)
}

func resultOf[T any](e *entry) Result[T] {
	r := Result[T]{
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Fetching:  e.fetching > 0,
		Stale:     e.invalid,
	}
	r.Data, _ = e.data.(T)

	switch {
	case e.err != nil:
		r.Status = StatusError
	case !e.updatedAt.IsZero():
		r.Status = StatusSuccess
	case e.fetching > 0:
		r.Status = StatusLoading
	default:
		r.Status = StatusIdle
	}
	return r
}

func (c *Client) entryLocked(key Key) *entry {
	id := key.String()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: append(Key(nil), key...), accessedAt: c.now(), gen: c.nextGenLocked()}
		c.entries[id] = e
	}
	return e
}

// nextGenLocked hands out generations from one sequence so a recreated
// entry never shares an in-flight request with the entry it replaced
func (c *Client) nextGenLocked() uint64 {
	c.seq++
	return c.seq
}

// run fetches key once per generation; concurrent callers share a request.
// The shared request runs detached from any one caller, so a caller that
// gives up only stops waiting and the others still get the result.
func (c *Client) run(ctx context.Context, key Key, fetch fetcher, opts Options) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	gen := e.gen
	c.mu.Unlock()

	flight := fmt.Sprintf("%s#%d", key, gen)
	ch := c.group.DoChan(flight, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(c.ctx, fetchTimeout)
		defer cancel()
		return c.fetchAndStore(fetchCtx, e, gen, fetch, opts)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) fetchAndStore(ctx context.Context, e *entry, gen uint64, fetch fetcher, opts Options) (any, error) {
	c.mu.Lock()
	e.fetching++
	c.mu.Unlock()

	v, err := c.withRetry(ctx, e.key, fetch, opts)

	c.mu.Lock()
	e.fetching--
	// Dropped by Remove or Clear while in flight: do not resurrect it
	if c.entries[e.key.String()] != e {
		c.mu.Unlock()
		return v, err
	}
	// Client shutdown is not a failure of the query
	if err != nil && errors.Is(err, context.Canceled) {
		c.mu.Unlock()
		return v, err
	}
	if err != nil {
		e.err = err
	} else {
		e.data = v
		e.err = nil
		e.updatedAt = c.now()
		if e.gen == gen {
			e.invalid = false
		}
	}
	subs := c.subscribersLocked(e.key)
	c.mu.Unlock()

	notify(subs)
	return v, err
}

func (c *Client) withRetry(ctx context.Context, key Key, fetch fetcher, opts Options) (any, error) {
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = c.retryDelay
	}

	for attempt := 0; ; attempt++ {
		v, err := fetch(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= opts.Retry || !retryable(ctx, err) {
			return nil, err
		}

		wait := delay << attempt
		if wait > maxRetryDelay || wait <= 0 {
			wait = maxRetryDelay
		}
		c.logger.Debug("retrying query", "key", key.String(), "attempt", attempt+1, "delay", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// retryable rejects errors a second attempt cannot fix
func retryable(ctx context.Context, err error) bool {
	switch {
	case ctx.Err() != nil:
		return false
	case client.IsClientError(err):
		return false
	case errors.Is(err, client.ErrNotAuthenticated), errors.Is(err, client.ErrMalformedResponse):
		return false
	}
	return true
}

func (c *Client) background(key Key, fetch fetcher, opts Options) {
	if c.ctx.Err() != nil {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		if _, err := c.run(c.ctx, key, fetch, opts); err != nil {
			c.logger.Debug("background refresh failed", "key", key.String(), "error", err)
		}
	}()
}

// Invalidate marks every entry under the given prefixes as outdated.
// Subscribed entries are refetched in the background right away; the rest
// are refetched on their next read.
func (c *Client) Invalidate(keys ...Key) {
	var refetch []func()

	c.mu.Lock()
	for id, e := range c.entries {
		if !matchesAny(e.key, keys) {
			continue
		}
		e.invalid = true
		e.gen = c.nextGenLocked()
		if len(c.subs[id]) > 0 && e.refetch != nil {
			refetch = append(refetch, e.refetch)
		}
	}
	c.mu.Unlock()

	for _, fn := range refetch {
		fn()
	}
}

// Remove drops every entry under the given prefixes
func (c *Client) Remove(keys ...Key) {
	var subs []func()

	c.mu.Lock()
	for id, e := range c.entries {
		if matchesAny(e.key, keys) {
			delete(c.entries, id)
			subs = append(subs, c.subscribersLocked(e.key)...)
		}
	}
	c.mu.Unlock()

	notify(subs)
}

// Clear drops the whole cache. Requests in flight finish but their
// results are not stored.
func (c *Client) Clear() {
	var subs []func()

	c.mu.Lock()
	n := len(c.entries)
	for id, e := range c.entries {
		delete(c.entries, id)
		subs = append(subs, c.subscribersLocked(e.key)...)
	}
	c.mu.Unlock()

	c.logger.Debug("query cache cleared", "entries", n)
	notify(subs)
}

// Len returns the number of cached entries
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Subscribe calls fn whenever the entry for key changes. Invalidating a
// subscribed key triggers an immediate refetch.
func (c *Client) Subscribe(key Key, fn func()) func() {
	id := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subs[id] == nil {
		c.subs[id] = make(map[int]func())
	}
	n := c.nextSub
	c.nextSub++
	c.subs[id][n] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs[id], n)
		if len(c.subs[id]) == 0 {
			delete(c.subs, id)
		}
	}
}

func (c *Client) subscribersLocked(key Key) []func() {
	set := c.subs[key.String()]
	out := make([]func(), 0, len(set))
	for _, fn := range set {
		out = append(out, fn)
	}
	return out
}

func notify(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

// GC drops entries not read for maxIdle that nobody subscribes to and
// nothing is fetching. It returns the number of dropped entries.
func (c *Client) GC(maxIdle time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for id, e := range c.entries {
		if e.fetching > 0 || len(c.subs[id]) > 0 {
			continue
		}
		if now.Sub(e.accessedAt) >= maxIdle {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}
