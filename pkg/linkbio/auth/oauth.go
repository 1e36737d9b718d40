package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tendant/simple-linkbio/pkg/linkbio"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateCookieName = "oauthstate"

	// DefaultUserInfoURL is Google's OpenID Connect userinfo endpoint
	DefaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

var (
	// ErrInvalidState is returned when the callback state does not match the cookie
	ErrInvalidState = fmt.Errorf("invalid oauth state: %w", linkbio.ErrUnauthorized)

	// ErrEmailNotAllowed is returned when the allow-list rejects the account
	ErrEmailNotAllowed = fmt.Errorf("email is not in the allow-list: %w", linkbio.ErrForbidden)
)

// OAuthConfig configures the authorization-code login. AuthURL, TokenURL and
// UserInfoURL default to Google when empty.
type OAuthConfig struct {
	Provider      string
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	AuthURL       string
	TokenURL      string
	UserInfoURL   string
	Scopes        []string
	AllowedEmails []string
	SecureCookie  bool
}

// OAuthLogin runs the authorization-code handshake.
type OAuthLogin struct {
	config      *oauth2.Config
	provider    string
	userInfoURL string
	allowed     map[string]struct{}
	secure      bool
}

type userInfo struct {
	Sub           string `json:"sub"`
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
}

// NewOAuthLogin validates cfg and builds the oauth2 client configuration
func NewOAuthLogin(cfg OAuthConfig) (*OAuthLogin, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("oauth client id and secret are required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("oauth redirect url is required")
	}

	endpoint := google.Endpoint
	if cfg.AuthURL != "" || cfg.TokenURL != "" {
		if cfg.AuthURL == "" || cfg.TokenURL == "" {
			return nil, errors.New("oauth auth url and token url must be set together")
		}
		endpoint = oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL}
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "google"
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedEmails))
	for _, email := range cfg.AllowedEmails {
		if email = linkbio.NormalizeEmail(email); email != "" {
			allowed[email] = struct{}{}
		}
	}

	return &OAuthLogin{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		provider:    provider,
		userInfoURL: userInfoURL,
		allowed:     allowed,
		secure:      cfg.SecureCookie,
	}, nil
}

// Begin sets a state cookie and returns the provider URL to redirect to
func (o *OAuthLogin) Begin(w http.ResponseWriter) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		Path:     "/",
		HttpOnly: true,
		Secure:   o.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return o.config.AuthCodeURL(state), nil
}

// Complete validates the callback, exchanges the code and fetches the
// account identity. The state cookie is cleared on every outcome.
func (o *OAuthLogin) Complete(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Identity, error) {
	cookie, err := r.Cookie(stateCookieName)
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: o.secure})
	if err != nil || cookie.Value == "" || r.FormValue("state") != cookie.Value {
		return nil, ErrInvalidState
	}
	if reason := r.FormValue("error"); reason != "" {
		return nil, fmt.Errorf("oauth provider denied login: %s: %w", reason, linkbio.ErrUnauthorized)
	}
	code := r.FormValue("code")
	if code == "" {
		return nil, fmt.Errorf("missing authorization code: %w", linkbio.ErrUnauthorized)
	}

	token, err := o.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %v: %w", err, linkbio.ErrUnauthorized)
	}

	info, err := o.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	subject := info.Sub
	if subject == "" {
		subject = info.ID
	}
	if subject == "" {
		return nil, errors.New("userinfo response has no subject")
	}
	email := linkbio.NormalizeEmail(info.Email)
	if len(o.allowed) > 0 {
		if _, ok := o.allowed[email]; !ok || (info.EmailVerified != nil && !*info.EmailVerified) {
			return nil, ErrEmailNotAllowed
		}
	}

	return &Identity{
		Subject:     o.provider + ":" + subject,
		Name:        strings.TrimSpace(info.Name),
		Email:       email,
		LoginMethod: MethodOAuth,
	}, nil
}

func (o *OAuthLogin) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed decoding user info: %w", err)
	}
	return &info, nil
}
