package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
	"github.com/tendant/simple-linkbio/pkg/linkbio/auth"
)

// RouterConfig wires the HTTP surface
type RouterConfig struct {
	Service  linkbio.Service
	Sessions *auth.Sessions
	OAuth    *auth.OAuthLogin
	Password *auth.PasswordLogin

	// Media serves uploads under MediaPath when the store keeps the bytes
	Media     linkbio.MediaReader
	MediaPath string

	AfterLoginURL  string
	AllowedOrigins []string
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable it only behind a proxy that overwrites those headers.
	TrustProxy bool
	// PublicWritesPerMinute limits clicks and sign-ups per client; 0 disables it
	PublicWritesPerMinute int
	MaxUploadSize         int64
	Logger                *slog.Logger
}

// NewRouter mounts the public, auth and owner routes:
//
//	GET  /l/{id}            redirect and record a click
//	/auth/*                 login handshakes and logout
//	/api/v1/*               public page data
//	/api/v1/auth/me         current owner
//	/api/v1/manage/*        owner dashboard (session required)
//	/media/*                uploaded files (memory and fs stores)
func NewRouter(cfg RouterConfig) (chi.Router, error) {
	if cfg.Service == nil {
		return nil, errors.New("service is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("sessions are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	public := NewPublicHandler(cfg.Service, logger)
	manage := NewManageHandler(cfg.Service, logger, cfg.MaxUploadSize)
	authHandler := NewAuthHandler(cfg.Service, cfg.Sessions, cfg.OAuth, cfg.Password, cfg.AfterLoginURL, logger)

	var limiter *RateLimiter
	if cfg.PublicWritesPerMinute > 0 {
		limiter = NewRateLimiter(cfg.PublicWritesPerMinute)
	}

	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(CORSMiddleware(cfg.AllowedOrigins))
	}
	r.Use(cfg.Sessions.Verifier())

	r.Get("/l/{id}", public.Redirect)
	r.Mount("/auth", authHandler.Routes())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/auth/me", authHandler.Me)
		r.Mount("/manage", manage.Routes())
		r.Mount("/", public.Routes(limiter))
	})

	if cfg.Media != nil {
		path := cfg.MediaPath
		if path == "" {
			path = "/media"
		}
		r.Mount(path, NewMediaHandler(cfg.Media, logger).Routes())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, logger, linkbio.ErrNotFound)
	})

	return r, nil
}
