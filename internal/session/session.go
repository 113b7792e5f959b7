// Package session holds the process-wide authentication state: the access
// token, the current user and the authenticated flag. The store is the
// single source of truth for the token; the HTTP client reads it through
// AccessToken right before each request.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/pkg/client"
)

// State is the session lifecycle state
type State int

const (
	// Anonymous means no token
	Anonymous State = iota
	// Unverified means a token is set but the user has not been fetched yet
	Unverified
	// Authenticated means token and user are both present
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Unverified:
		return "unverified"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrInvalidToken is returned when a restored token is malformed or expired
	ErrInvalidToken = errors.New("stored token is malformed or expired")
	// ErrSessionChanged is returned when the token changed while a user fetch was in flight
	ErrSessionChanged = errors.New("session changed during request")
)

// Backend is what the store needs from the API
type Backend interface {
	Login(ctx context.Context, in models.LoginRequest) (string, error)
	Register(ctx context.Context, in models.RegisterRequest) (string, error)
	CurrentUser(ctx context.Context) (*models.Profile, error)
}

// Snapshot is a consistent copy of the session
type Snapshot struct {
	User            *models.Profile
	AccessToken     string
	IsAuthenticated bool
	State           State
}

// Store is the session store
type Store struct {
	backend Backend
	storage TokenStorage
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	token string
	user  *models.Profile
	// gen changes with every token change so late user fetches can tell
	// they belong to an older session
	gen uint64

	persistMu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// Option configures the store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides time.Now, used for token expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an anonymous session
func NewStore(backend Backend, storage TokenStorage, opts ...Option) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	s := &Store{
		backend: backend,
		storage: storage,
		logger:  slog.Default(),
		now:     time.Now,
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AccessToken implements client.TokenSource
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether token and user are both present
func (s *Store) IsAuthenticated() bool {
	return s.Snapshot().IsAuthenticated
}

// Snapshot returns the current session
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{AccessToken: s.token}
	switch {
	case s.token == "":
		snap.State = Anonymous
	case s.user == nil:
		snap.State = Unverified
	default:
		u := *s.user
		snap.User = &u
		snap.IsAuthenticated = true
		snap.State = Authenticated
	}
	return snap
}

// Subscribe calls fn after every state transition and returns a function
// that removes the subscription
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Login exchanges credentials for a token and loads the user. The session
// is authenticated only after the user fetch succeeds; any failure leaves
// it anonymous.
func (s *Store) Login(ctx context.Context, in models.LoginRequest) (*models.Profile, error) {
	token, err := s.backend.Login(ctx, in)
	if err != nil {
		s.Logout()
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return s.establish(ctx, token, "login")
}

// Register creates an account and signs in with it
func (s *Store) Register(ctx context.Context, in models.RegisterRequest) (*models.Profile, error) {
	token, err := s.backend.Register(ctx, in)
	if err != nil {
		s.Logout()
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return s.establish(ctx, token, "register")
}

func (s *Store) establish(ctx context.Context, token, op string) (*models.Profile, error) {
	s.SetToken(token)

	// RefreshUser already logged out on failure
	user, err := s.RefreshUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", op, err)
	}

	s.logger.Info("session authenticated", "op", op, "user_id", user.ID)
	return user, nil
}

// SetToken replaces the token and drops the user until it is fetched again.
// An empty token logs out.
func (s *Store) SetToken(token string) {
	if token == "" {
		s.Logout()
		return
	}

	s.mu.Lock()
	s.token = token
	s.user = nil
	s.gen++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persist()
	s.notify(snap)
}

// RefreshUser fetches the current user. Failure logs out unless the token
// was replaced while the fetch was in flight.
func (s *Store) RefreshUser(ctx context.Context) (*models.Profile, error) {
	s.mu.RLock()
	token, gen := s.token, s.gen
	s.mu.RUnlock()

	if token == "" {
		return nil, client.ErrNotAuthenticated
	}

	user, err := s.backend.CurrentUser(ctx)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch user: %w", err)
		}
		return nil, ErrSessionChanged
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("user refresh failed, logging out", "error", err)
		s.Logout()
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	u := *user
	s.user = &u
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return user, nil
}

// UpdateUser replaces the cached user after a profile write. Only an
// authenticated session for the same user id is touched.
func (s *Store) UpdateUser(user *models.Profile) {
	if user == nil {
		return
	}

	s.mu.Lock()
	if s.token == "" || s.user == nil || s.user.ID != user.ID {
		s.mu.Unlock()
		return
	}
	u := *user
	s.user = &u
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Logout clears token and user in memory and in storage
func (s *Store) Logout() {
	s.mu.Lock()
	wasAnonymous := s.token == ""
	s.token = ""
	s.user = nil
	s.gen++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persist()
	if !wasAnonymous {
		s.logger.Info("session cleared")
		s.notify(snap)
	}
}

// ExpireToken is the 401 side channel. It logs out only when token is
// still the current one, so a late 401 for a replaced token cannot end a
// newer session. It reports whether the session was ended.
func (s *Store) ExpireToken(token string) bool {
	s.mu.Lock()
	if s.token == "" || token != s.token {
		stale := s.token != ""
		s.mu.Unlock()
		if stale {
			s.logger.Debug("ignoring 401 for a replaced token")
		}
		return false
	}
	s.token = ""
	s.user = nil
	s.gen++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Warn("access token rejected by server")
	s.persist()
	s.notify(snap)
	return true
}

// Rehydrate restores the persisted token. A malformed or expired token
// forces a logout. An opaque (non-JWT) token has no readable expiry and is
// kept until the user fetch says otherwise. A usable token is set right
// away and the user is fetched in the background; the returned channel
// yields the outcome.
func (s *Store) Rehydrate(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	token, err := s.storage.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to restore session, logging out", "error", err)
		s.Logout()
		done <- fmt.Errorf("%w: %v", ErrInvalidToken, err)
		close(done)
		return done
	}
	if token == "" {
		close(done)
		return done
	}

	if err := inspect(token, s.now()); err != nil {
		s.logger.Warn("discarding stored token", "error", err)
		s.Logout()
		done <- err
		close(done)
		return done
	}

	s.SetToken(token)

	go func() {
		defer close(done)
		if _, err := s.RefreshUser(ctx); err != nil {
			done <- err
		}
	}()
	return done
}

// persist writes the current token, or clears storage when there is none.
// It always writes the latest value so concurrent transitions converge.
func (s *Store) persist() {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	token := s.AccessToken()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	if token == "" {
		err = s.storage.Clear(ctx)
	} else {
		err = s.storage.Save(ctx, token)
	}
	if err != nil {
		s.logger.Error("failed to persist session", "error", err)
	}
}
