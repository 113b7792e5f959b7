package fakeapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload of tokens issued by the fake backend
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for an account id. Tests use it to mint
// tokens with a chosen lifetime.
func (s *Server) IssueToken(accountID int64, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.JWTSecret))
}

// authenticate verifies the bearer token of /me requests
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			s.respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		accountID, err := s.verify(raw)
		if err != nil {
			s.logger.Debug("rejected token", "error", err, "remote_addr", r.RemoteAddr)
			s.respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(contextWithAccount(r.Context(), accountID)))
	})
}

var errRevoked = errors.New("token revoked")

func (s *Server) verify(raw string) (int64, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return []byte(s.opts.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, err
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[raw] {
		return 0, errRevoked
	}
	if _, exists := s.data.accounts[id]; !exists {
		return 0, errors.New("unknown account")
	}
	return id, nil
}

// account returns the caller's account; the caller must hold s.mu
func (s *Server) account(w http.ResponseWriter, r *http.Request) (*account, bool) {
	id, ok := accountFromContext(r.Context())
	if ok {
		if a, exists := s.data.accounts[id]; exists {
			return a, true
		}
	}
	s.respondError(w, http.StatusUnauthorized, "Authentication required")
	return nil, false
}
