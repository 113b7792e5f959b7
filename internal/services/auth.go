package services

import (
	"context"
	"net/http"

	"github.com/devfolio/portfolio-sync/internal/models"
	"github.com/devfolio/portfolio-sync/internal/validation"
	"github.com/devfolio/portfolio-sync/pkg/client"
)

// Auth exchanges credentials for an access token
type Auth struct {
	api *client.Client
}

// NewAuth creates the auth service
func NewAuth(api *client.Client) *Auth {
	return &Auth{api: api}
}

// Login returns a token for valid credentials
func (s *Auth) Login(ctx context.Context, in models.LoginRequest) (string, error) {
	return s.token(ctx, "/auth/login", in)
}

// Register creates an account and returns its token
func (s *Auth) Register(ctx context.Context, in models.RegisterRequest) (string, error) {
	return s.token(ctx, "/auth/register", in)
}

func (s *Auth) token(ctx context.Context, path string, in any) (string, error) {
	if err := validation.Struct(in); err != nil {
		return "", err
	}
	resp, err := call[models.AuthResponse](ctx, s.api, client.Request{Method: http.MethodPost, Path: path, Body: in})
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Account is the slice of the API the session store depends on
type Account struct {
	auth    *Auth
	profile *Profile
}

// NewAccount combines the auth and profile services
func NewAccount(auth *Auth, profile *Profile) *Account {
	return &Account{auth: auth, profile: profile}
}

// Login implements session.Backend
func (a *Account) Login(ctx context.Context, in models.LoginRequest) (string, error) {
	return a.auth.Login(ctx, in)
}

// Register implements session.Backend
func (a *Account) Register(ctx context.Context, in models.RegisterRequest) (string, error) {
	return a.auth.Register(ctx, in)
}

// CurrentUser returns the caller's profile
func (a *Account) CurrentUser(ctx context.Context) (*models.Profile, error) {
	return a.profile.Get(ctx)
}
