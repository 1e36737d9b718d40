package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
)

// CookieName is the session cookie read by jwtauth.TokenFromCookie
const CookieName = "jwt"

// DefaultSessionTTL is how long an owner session stays valid
const DefaultSessionTTL = 7 * 24 * time.Hour

// Sessions signs and verifies owner session tokens (HS256).
type Sessions struct {
	ja     *jwtauth.JWTAuth
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// SessionOption customizes Sessions
type SessionOption func(*Sessions)

// WithTTL sets the session lifetime
func WithTTL(ttl time.Duration) SessionOption {
	return func(s *Sessions) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSecureCookie marks session cookies Secure (HTTPS only)
func WithSecureCookie(secure bool) SessionOption {
	return func(s *Sessions) {
		s.secure = secure
	}
}

// NewSessions creates a session issuer from a shared secret
func NewSessions(secret string, opts ...SessionOption) (*Sessions, error) {
	if len(secret) < 16 {
		return nil, errors.New("session secret must be at least 16 bytes")
	}
	s := &Sessions{
		ja:  jwtauth.New("HS256", []byte(secret), nil),
		ttl: DefaultSessionTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for ownerID and returns it with its expiry
func (s *Sessions) Issue(ownerID uuid.UUID) (string, time.Time, error) {
	if ownerID == uuid.Nil {
		return "", time.Time{}, linkbio.ErrUnauthorized
	}
	now := s.now()
	expires := now.Add(s.ttl)

	claims := map[string]interface{}{"sub": ownerID.String()}
	jwtauth.SetIssuedAt(claims, now)
	jwtauth.SetExpiry(claims, expires)

	_, token, err := s.ja.Encode(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return token, expires, nil
}

// SetCookie writes the session cookie
func (s *Sessions) SetCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Verifier finds a token in the Authorization header or the session cookie
// and records the verification result in the request context. It never
// rejects a request; use OwnerID to read the outcome.
func (s *Sessions) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(s.ja)
}

// OwnerID returns the authenticated owner recorded by Verifier.
// It returns linkbio.ErrUnauthorized for anonymous or invalid sessions.
func OwnerID(ctx context.Context) (uuid.UUID, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return uuid.Nil, linkbio.ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, linkbio.ErrUnauthorized
	}
	return id, nil
}
