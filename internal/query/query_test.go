package query

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devfolio/portfolio-sync/pkg/client"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestClient(clock *fakeClock) *Client {
	opts := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRetryDelay(time.Millisecond),
	}
	if clock != nil {
		opts = append(opts, WithClock(clock.Now))
	}
	return New(opts...)
}

// counter returns a fetch function that yields its call number
func counter() (*atomic.Int32, func(context.Context) (int, error)) {
	var calls atomic.Int32
	return &calls, func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}
}

func TestKeyHasPrefix(t *testing.T) {
	tests := []struct {
		key    Key
		prefix Key
		want   bool
	}{
		{NewKey("skills", 12), NewKey("skills", 12), true},
		{NewKey("skills", 12), NewKey("skills"), true},
		{NewKey("skills", 120), NewKey("skills", 12), false},
		{NewKey("skills", 13), NewKey("skills", 12), false},
		{NewKey("skill-categories"), NewKey("skills"), false},
		{NewKey("projects", 4), NewKey("projects", 4, "x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.key.String()+"/"+tt.prefix.String(), func(t *testing.T) {
			if got := tt.key.HasPrefix(tt.prefix); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFreshDataServedFromCache(t *testing.T) {
	clock := newFakeClock()
	c := newTestClient(clock)
	defer c.Close()

	calls, fn := counter()
	key := NewKey("profile")
	opts := Options{StaleTime: 5 * time.Minute}

	for i := 0; i < 3; i++ {
		r := Fetch(context.Background(), c, key, fn, opts)
		if !r.IsSuccess() || r.Data != 1 {
			t.Fatalf("read %d: unexpected result %+v", i, r)
		}
		clock.Advance(time.Minute)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 request within stale time, got %d", calls.Load())
	}
}

func TestOldDataRefreshedInBackground(t *testing.T) {
	clock := newFakeClock()
	c := newTestClient(clock)

	calls, fn := counter()
	key := NewKey("projects")
	opts := Options{StaleTime: time.Minute}

	Fetch(context.Background(), c, key, fn, opts)
	clock.Advance(2 * time.Minute)

	r := Fetch(context.Background(), c, key, fn, opts)
	if r.Data != 1 {
		t.Errorf("old data should be served while refreshing, got %d", r.Data)
	}

	c.Close()
	if calls.Load() != 2 {
		t.Fatalf("expected a background refresh, got %d calls", calls.Load())
	}
	if got := Peek[int](c, key); got.Data != 2 {
		t.Errorf("cache should hold refreshed data, got %d", got.Data)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	c := newTestClient(nil)
	defer c.Close()

	calls, fn := counter()
	key := NewKey("experience")
	opts := Options{StaleTime: time.Hour}

	if r := Fetch(context.Background(), c, key, fn, opts); r.Data != 1 {
		t.Fatalf("unexpected first read %d", r.Data)
	}

	c.Invalidate(NewKey("experience"))

	if r := Fetch(context.Background(), c, key, fn, opts); r.Data != 2 {
		t.Errorf("read after invalidate should see new data, got %d", r.Data)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 requests, got %d", calls.Load())
	}
}

func TestInvalidateIsSegmentScoped(t *testing.T) {
	c := newTestClient(nil)
	defer c.Close()

	_, fn := counter()
	opts := Options{StaleTime: time.Hour}
	keys := []Key{NewKey("skills", 12), NewKey("skills", 120), NewKey("skills", 13), NewKey("skill-categories")}
	for _, k := range keys {
		Fetch(context.Background(), c, k, fn, opts)
	}

	c.Invalidate(NewKey("skills", 12), NewKey("skill-categories"))

	want := map[string]bool{"skills:12": true, "skills:120": false, "skills:13": false, "skill-categories": true}
	for _, k := range keys {
		if got := Peek[int](c, k).Stale; got != want[k.String()] {
			t.Errorf("%s: stale=%v, want %v", k, got, want[k.String()])
		}
	}
}

func TestDisabledReadIsIdle(t *testing.T) {
	c := newTestClient(nil)
	defer c.Close()

	calls, fn := counter()
	r := Fetch(context.Background(), c, NewKey("profile"), fn, Options{Enabled: func() bool { return false }})
	if !r.IsIdle() {
		t.Errorf("expected idle result, got %s", r.Status)
	}
	if calls.Load() != 0 {
		t.Error("disabled read must not fetch")
	}
}

func TestConcurrentReadsShareRequest(t *testing.T) {
	c := newTestClient(nil)
	defer c.Close()

	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "done", nil
	}

	var wg sync.WaitGroup
	results := make([]Result[string], 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Fetch(context.Background(), c, NewKey("portfolios"), fn, Options{StaleTime: time.Minute})
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected one shared request, got %d", calls.Load())
	}
	for i, r := range results {
		if r.Data != "done" {
			t.Errorf("reader %d got %q", i, r.Data)
		}
	}
}

func TestCancelledReaderDoesNotFailOthers(t *testing.T) {
	c := newTestClient(nil)
	defer c.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	fn := func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return 42, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	key := NewKey("k")
	opts := Options{StaleTime: time.Minute}

	ctxA, cancelA := context.WithCancel(context.Background())
	doneA := make(chan Result[int])
	go func() { doneA <- Fetch(ctxA, c, key, fn, opts) }()
	<-started

	doneB := make(chan Result[int])
	go func() { doneB <- Fetch(context.Background(), c, key, fn, opts) }()

	cancelA()
	if r := <-doneA; !errors.Is(r.Err, context.Canceled) {
		t.Errorf("cancelled reader should see its own cancellation, got %v", r.Err)
	}

	close(release)
	r := <-doneB
	if !r.IsSuccess() || r.Data != 42 {
		t.Fatalf("live reader got status=%s err=%v data=%d", r.Status, r.Err, r.Data)
	}
	if calls.Load() != 1 {
		t.Errorf("expected one shared request, got %d", calls.Load())
	}

	cached := Peek[int](c, key)
	if !cached.IsSuccess() || cached.Err != nil || cached.Data != 42 {
		t.Errorf("cache should hold the result, got status=%s err=%v", cached.Status, cached.Err)
	}
}

func TestFetchStartedBeforeInvalidationStaysStale(t *testing.T) {
	c := newTestClient(nil)
	defer c.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	fn := func(ctx context.Context) (int, error) {
		n := int(calls.Add(1))
		if n == 1 {
			close(started)
			<-release
		}
		return n, nil
	}

	key := NewKey("projects")
	opts := Options{StaleTime: time.Hour}

	done := make(chan Result[int])
	go func() { done <- Fetch(context.Background(), c, key, fn, opts) }()

	<-started
	c.Invalidate(key)
	close(release)

	if r := <-done; r.Data != 1 {
		t.Fatalf("first read got %d", r.Data)
	}
	if !Peek[int](c, key).Stale {
		t.Fatal("data fetched before the invalidation must stay stale")
	}
	if r := Fetch(context.Background(), c, key, fn, opts); r.Data != 2 {
		t.Errorf("next read should refetch, got %d", r.Data)
	}
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retry     int
		wantCalls int32
		wantOK    bool
	}{
		{name: "transient error retried", err: errors.New("connection reset"), retry: 2, wantCalls: 3, wantOK: true},
		{name: "retry budget exhausted", err: errors.New("connection reset"), retry: 1, wantCalls: 2, wantOK: false},
		{name: "4xx not retried", err: &client.APIError{Status: 404}, retry: 3, wantCalls: 1, wantOK: false},
		{name: "no token not retried", err: client.ErrNotAuthenticated, retry: 3, wantCalls: 1, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(nil)
			defer c.Close()

			var calls atomic.Int32
			fn := func(ctx context.Context) (string, error) {
				// Fail twice, then succeed
				if calls.Add(1) <= 2 {
					return "", tt.err
				}
				return "ok", nil
			}

			r := Fetch(context.Background(), c, NewKey("x"), fn, Options{Retry: tt.retry})
			if calls.Load() != tt.wantCalls {
				t.Errorf("got %d calls, want %d", calls.Load(), tt.wantCalls)
			}
			if r.IsSuccess() != tt.wantOK {
				t.Errorf("got status %s, err %v", r.Status, r.Err)
			}
			if !tt.wantOK && !errors.Is(r.Err, tt.err) {
				t.Errorf("got error %v, want %v", r.Err, tt.err)
			}
		})
	}
}

func TestErrorKeepsLastGoodData(t *testing.T) {
	c := newTestClient(nil)
	defer c.Close()

	key := NewKey("profile")
	fail := false
	fn := func(ctx context.Context) (string, error) {
		if fail {
			return "", errors.New("offline")
		}
		return "ada", nil
	}

	Fetch(context.Background(), c, key, fn, Options{StaleTime: time.Hour})
	c.Invalidate(key)
	fail = true

	r := Fetch(context.Background(), c, key, fn, Options{StaleTime: time.Hour})
	if !r.IsError() || r.Data != "ada" {
		t.Errorf("expected error with last good data, got %+v", r)
	}
}

func TestMutateInvalidatesOnlyOnSuccess(t *testing.T) {
	c := newTestClient(nil)
	defer c.Close()

	_, fn := counter()
	key := NewKey("social-links")
	Fetch(context.Background(), c, key, fn, Options{StaleTime: time.Hour})

	_, err := Mutate(context.Background(), c, func(ctx context.Context) (int, error) {
		return 0, errors.New("rejected")
	}, key)
	if err == nil {
		t.Fatal("expected mutation error")
	}
	if Peek[int](c, key).Stale {
		t.Error("failed mutation must not touch the cache")
	}

	if _, err := Mutate(context.Background(), c, func(ctx context.Context) (int, error) {
		return 1, nil
	}, key); err != nil {
		t.Fatalf("mutation failed: %v", err)
	}
	if !Peek[int](c, key).Stale {
		t.Error("successful mutation should invalidate its keys")
	}
}

func TestClearDropsInFlightResult(t *testing.T) {
	c := newTestClient(nil)
	defer c.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	fn := func(ctx context.Context) (string, error) {
		close(started)
		<-release
		return "previous user", nil
	}

	key := NewKey("profile")
	done := make(chan struct{})
	go func() {
		Fetch(context.Background(), c, key, fn, Options{})
		close(done)
	}()

	<-started
	c.Clear()
	close(release)
	<-done

	if r := Peek[string](c, key); !r.IsIdle() {
		t.Errorf("cleared cache should stay empty, got %+v", r)
	}
}

func TestSubscribersRefetchOnInvalidate(t *testing.T) {
	c := newTestClient(nil)
	defer c.Close()

	calls, fn := counter()
	key := NewKey("profile")
	Fetch(context.Background(), c, key, fn, Options{StaleTime: time.Hour})

	notified := make(chan struct{}, 1)
	unsubscribe := c.Subscribe(key, func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	c.Invalidate(key)

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("subscriber was not notified")
	}
	if calls.Load() != 2 {
		t.Errorf("expected background refetch, got %d calls", calls.Load())
	}
	if r := Peek[int](c, key); r.Data != 2 || r.Stale {
		t.Errorf("unexpected cache state %+v", r)
	}
}

func TestGC(t *testing.T) {
	clock := newFakeClock()
	c := newTestClient(clock)
	defer c.Close()

	_, fn := counter()
	opts := Options{StaleTime: time.Hour}
	Fetch(context.Background(), c, NewKey("idle"), fn, opts)
	Fetch(context.Background(), c, NewKey("watched"), fn, opts)
	unsubscribe := c.Subscribe(NewKey("watched"), func() {})
	defer unsubscribe()

	clock.Advance(4 * time.Minute)
	Fetch(context.Background(), c, NewKey("recent"), fn, opts)
	clock.Advance(2 * time.Minute)

	collector := NewCollector(c, time.Minute, 5*time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if removed := collector.collect(); removed != 1 {
		t.Errorf("expected 1 entry collected, got %d", removed)
	}
	if !Peek[int](c, NewKey("idle")).IsIdle() {
		t.Error("idle entry should be gone")
	}
	if Peek[int](c, NewKey("watched")).IsIdle() || Peek[int](c, NewKey("recent")).IsIdle() {
		t.Error("watched and recent entries should survive")
	}
}

func TestMutationState(t *testing.T) {
	var m MutationState
	if m.Pending() {
		t.Fatal("new state should be idle")
	}

	end1 := m.Begin()
	end2 := m.Begin()
	end1()
	end1()
	if !m.Pending() {
		t.Error("second write still in flight")
	}
	end2()
	if m.Pending() {
		t.Error("all writes finished")
	}
}
