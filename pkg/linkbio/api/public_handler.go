package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
)

const clickTimeout = 5 * time.Second

// PublicHandler serves the published owner's page to anonymous visitors
type PublicHandler struct {
	service linkbio.Service
	logger  *slog.Logger
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(service linkbio.Service, logger *slog.Logger) *PublicHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicHandler{service: service, logger: logger}
}

// Routes returns the public routes. limiter guards the write endpoints and may be nil.
func (h *PublicHandler) Routes(limiter *RateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Get("/profile", h.GetProfile)
	r.Get("/links", h.ListLinks)
	r.Get("/carousel", h.ListCarouselImages)
	r.Get("/products", h.ListProducts)

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware)
		}
		r.Post("/links/{id}/clicks", h.TrackClick)
		r.Post("/newsletter/subscribe", h.Subscribe)
	})

	return r
}

// GetProfile returns the published profile, or null when none exists yet
func (h *PublicHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetPublicProfile(r.Context())
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, profile)
}

// ListLinks returns active links in display order
func (h *PublicHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.ListPublicLinks(r.Context())
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, links)
}

// ListCarouselImages returns active carousel images in display order
func (h *PublicHandler) ListCarouselImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.service.ListPublicCarouselImages(r.Context())
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, images)
}

// ListProducts returns active products in display order
func (h *PublicHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListPublicProducts(r.Context())
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, products)
}

type trackClickBody struct {
	IPAddress *string `json:"ipAddress,omitempty"`
	UserAgent *string `json:"userAgent,omitempty"`
}

// TrackClick records a click. The body is optional; the client address and
// User-Agent header fill in what the caller omits.
func (h *PublicHandler) TrackClick(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	var body trackClickBody
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &body); err != nil {
			renderError(w, r, h.logger, err)
			return
		}
	}
	req := h.clickRequest(r)
	req.LinkID = id
	if body.IPAddress != nil {
		req.IPAddress = body.IPAddress
	}
	if body.UserAgent != nil {
		req.UserAgent = body.UserAgent
	}

	click, err := h.service.TrackClick(r.Context(), req)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, click)
}

// Redirect sends the visitor to the link target and records the click in
// the background so navigation never waits on the store.
func (h *PublicHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	link, err := h.service.ResolveLink(r.Context(), id)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	req := h.clickRequest(r)
	req.LinkID = link.ID
	ctx := context.WithoutCancel(r.Context())
	go func() {
		ctx, cancel := context.WithTimeout(ctx, clickTimeout)
		defer cancel()
		if _, err := h.service.TrackClick(ctx, req); err != nil {
			h.logger.Warn("Failed to record click", "link_id", req.LinkID, "error", err)
		}
	}()

	http.Redirect(w, r, link.URL, http.StatusFound)
}

func (h *PublicHandler) clickRequest(r *http.Request) linkbio.TrackClickRequest {
	return linkbio.TrackClickRequest{
		IPAddress: optional(clientIP(r)),
		UserAgent: optional(r.UserAgent()),
	}
}

// Subscribe adds an email address to the newsletter
func (h *PublicHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req linkbio.SubscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	subscriber, err := h.service.Subscribe(r.Context(), req)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Newsletter subscription", "subscriber_id", subscriber.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, subscriber)
}
