package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
	"github.com/tendant/simple-linkbio/pkg/linkbio/auth"
)

var errLoginDisabled = errors.New("login method is not configured")

// AuthHandler runs login handshakes and manages the session cookie
type AuthHandler struct {
	service       linkbio.Service
	sessions      *auth.Sessions
	oauth         *auth.OAuthLogin
	password      *auth.PasswordLogin
	afterLoginURL string
	logger        *slog.Logger
}

// SessionResponse is returned by password login
type SessionResponse struct {
	Owner     *linkbio.Owner `json:"owner"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

type passwordLoginBody struct {
	Password string `json:"password"`
}

// NewAuthHandler creates a new auth handler. oauth and password may be nil
// to disable that login method.
func NewAuthHandler(service linkbio.Service, sessions *auth.Sessions, oauth *auth.OAuthLogin, password *auth.PasswordLogin, afterLoginURL string, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if afterLoginURL == "" {
		afterLoginURL = "/"
	}
	return &AuthHandler{
		service:       service,
		sessions:      sessions,
		oauth:         oauth,
		password:      password,
		afterLoginURL: afterLoginURL,
		logger:        logger,
	}
}

// Routes returns the login routes mounted at /auth
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/login", h.Login)
	r.Get("/callback", h.Callback)
	r.Post("/password", h.PasswordLogin)
	r.Post("/logout", h.Logout)
	return r
}

// Login redirects to the OAuth provider
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		h.disabled(w, r)
		return
	}
	url, err := h.oauth.Begin(w)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Callback completes the OAuth handshake and starts a session
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		h.disabled(w, r)
		return
	}
	identity, err := h.oauth.Complete(r.Context(), w, r)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	if _, _, err := h.startSession(w, r, identity); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	http.Redirect(w, r, h.afterLoginURL, http.StatusTemporaryRedirect)
}

// PasswordLogin checks the owner password and starts a session
func (h *AuthHandler) PasswordLogin(w http.ResponseWriter, r *http.Request) {
	if h.password == nil {
		h.disabled(w, r)
		return
	}
	var body passwordLoginBody
	if err := decodeJSON(w, r, &body); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	identity, err := h.password.Verify(body.Password)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	owner, token, err := h.startSession(w, r, identity)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, SessionResponse{Owner: owner, Token: token.value, ExpiresAt: token.expires})
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	render.JSON(w, r, map[string]bool{"success": true})
}

// Me returns the signed-in owner, or null for anonymous visitors
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := auth.OwnerID(r.Context())
	if err != nil {
		render.JSON(w, r, nil)
		return
	}
	owner, err := h.service.GetOwner(r.Context(), id)
	if errors.Is(err, linkbio.ErrNotFound) {
		render.JSON(w, r, nil)
		return
	}
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, owner)
}

type sessionToken struct {
	value   string
	expires time.Time
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, identity *auth.Identity) (*linkbio.Owner, sessionToken, error) {
	owner, err := h.service.SignIn(r.Context(), identity.SignInRequest())
	if err != nil {
		return nil, sessionToken{}, err
	}
	value, expires, err := h.sessions.Issue(owner.ID)
	if err != nil {
		return nil, sessionToken{}, err
	}
	h.sessions.SetCookie(w, value, expires)
	h.logger.Info("Owner signed in", "owner_id", owner.ID, "method", identity.LoginMethod, "role", owner.Role)
	return owner, sessionToken{value: value, expires: expires}, nil
}

func (h *AuthHandler) disabled(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, ErrorBody{Error: ErrorDetail{Code: "not_found", Message: errLoginDisabled.Error()}})
}
