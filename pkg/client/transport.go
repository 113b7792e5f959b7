package client

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource yields the access token to attach to the next request
type TokenSource interface {
	AccessToken() string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func() string

// AccessToken implements TokenSource
func (f TokenFunc) AccessToken() string { return f() }

// UnauthorizedHandler is the single side effect of a 401 response.
// It receives the token the rejected request was sent with.
type UnauthorizedHandler interface {
	HandleUnauthorized(token string)
}

// UnauthorizedFunc adapts a function to UnauthorizedHandler
type UnauthorizedFunc func(token string)

// HandleUnauthorized implements UnauthorizedHandler
func (f UnauthorizedFunc) HandleUnauthorized(token string) { f(token) }

// Stage wraps a transport with one step of the outbound pipeline
type Stage func(next http.RoundTripper) http.RoundTripper

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// Chain applies stages so that the first stage sees the request first
func Chain(base http.RoundTripper, stages ...Stage) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	rt := base
	for i := len(stages) - 1; i >= 0; i-- {
		rt = stages[i](rt)
	}
	return rt
}

// RequestID tags every request with an X-Request-ID header
func RequestID() Stage {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("X-Request-ID") != "" {
				return next.RoundTrip(req)
			}
			r := req.Clone(req.Context())
			r.Header.Set("X-Request-ID", uuid.NewString())
			return next.RoundTrip(r)
		})
	}
}

// Bearer reads the current token right before sending and sets the
// Authorization header when one exists
func Bearer(tokens TokenSource) Stage {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if tokens == nil {
				return next.RoundTrip(req)
			}
			token := tokens.AccessToken()
			r := req.Clone(req.Context())
			if token != "" {
				r.Header.Set("Authorization", "Bearer "+token)
			} else {
				r.Header.Del("Authorization")
			}
			return next.RoundTrip(r)
		})
	}
}

// Unauthorized calls handler synchronously on every 401, before the
// response is handed back to the caller
func Unauthorized(handler UnauthorizedHandler) Stage {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err == nil && resp.StatusCode == http.StatusUnauthorized && handler != nil {
				handler.HandleUnauthorized(bearerToken(req))
			}
			return resp, err
		})
	}
}

// Logging logs each round trip at debug level
func Logging(logger *slog.Logger) Stage {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			attrs := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"request_id", req.Header.Get("X-Request-ID"),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				logger.Debug("http request failed", append(attrs, "error", err)...)
				return resp, err
			}
			logger.Debug("http request", append(attrs, "status", resp.StatusCode)...)
			return resp, err
		})
	}
}

func bearerToken(req *http.Request) string {
	return strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
}
