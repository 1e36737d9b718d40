package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
	"github.com/tendant/simple-linkbio/pkg/linkbio/auth"
)

const maxMultipartMemory = 1 << 20

// ManageHandler serves the owner dashboard API. Every route requires a session.
type ManageHandler struct {
	service       linkbio.Service
	logger        *slog.Logger
	maxUploadSize int64
}

// NewManageHandler creates a new owner handler
func NewManageHandler(service linkbio.Service, logger *slog.Logger, maxUploadSize int64) *ManageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadSize <= 0 {
		maxUploadSize = linkbio.DefaultMaxUploadSize
	}
	return &ManageHandler{service: service, logger: logger, maxUploadSize: maxUploadSize}
}

// Routes returns the owner routes
func (h *ManageHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireOwner(h.logger))

	r.Get("/profile", h.GetProfile)
	r.Put("/profile", h.UpdateProfile)

	r.Get("/links", h.ListLinks)
	r.Post("/links", h.CreateLink)
	r.Get("/links/stats", h.LinkStats)
	r.Patch("/links/{id}", h.UpdateLink)
	r.Delete("/links/{id}", h.DeleteLink)

	r.Get("/carousel", h.ListCarouselImages)
	r.Post("/carousel", h.CreateCarouselImage)
	r.Patch("/carousel/{id}", h.UpdateCarouselImage)
	r.Delete("/carousel/{id}", h.DeleteCarouselImage)

	r.Get("/products", h.ListProducts)
	r.Post("/products", h.CreateProduct)
	r.Patch("/products/{id}", h.UpdateProduct)
	r.Delete("/products/{id}", h.DeleteProduct)

	r.Get("/subscribers", h.ListSubscribers)
	r.Patch("/subscribers/{id}", h.UpdateSubscriber)

	r.Post("/media", h.UploadMedia)
	r.Delete("/media/*", h.DeleteMedia)

	return r
}

// Profile

func (h *ManageHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), callerID(r))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, profile)
}

func (h *ManageHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req linkbio.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	profile, err := h.service.UpdateProfile(r.Context(), callerID(r), req)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, profile)
}

// Links

func (h *ManageHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.ListLinks(r.Context(), callerID(r))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, links)
}

func (h *ManageHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req linkbio.CreateLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	link, err := h.service.CreateLink(r.Context(), callerID(r), req)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Link created", "link_id", link.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, link)
}

func (h *ManageHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	var req linkbio.UpdateLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	link, err := h.service.UpdateLink(r.Context(), callerID(r), id, req)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, link)
}

func (h *ManageHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	if err := h.service.DeleteLink(r.Context(), callerID(r), id); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Link deleted", "link_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// LinkStats reports clicks per link; ?limit=N keeps the top N rows
func (h *ManageHandler) LinkStats(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			renderError(w, r, h.logger, badRequest("limit", "must be a non-negative integer"))
			return
		}
		limit = n
	}
	stats, err := h.service.LinkStats(r.Context(), callerID(r), limit)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, stats)
}

// Carousel

func (h *ManageHandler) ListCarouselImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.service.ListCarouselImages(r.Context(), callerID(r))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, images)
}

func (h *ManageHandler) CreateCarouselImage(w http.ResponseWriter, r *http.Request) {
	var req linkbio.CreateCarouselImageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	image, err := h.service.CreateCarouselImage(r.Context(), callerID(r), req)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, image)
}

func (h *ManageHandler) UpdateCarouselImage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	var req linkbio.UpdateCarouselImageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	image, err := h.service.UpdateCarouselImage(r.Context(), callerID(r), id, req)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, image)
}

func (h *ManageHandler) DeleteCarouselImage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	if err := h.service.DeleteCarouselImage(r.Context(), callerID(r), id); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Products

func (h *ManageHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context(), callerID(r))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, products)
}

func (h *ManageHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req linkbio.CreateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	product, err := h.service.CreateProduct(r.Context(), callerID(r), req)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, product)
}

func (h *ManageHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	var req linkbio.UpdateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), callerID(r), id, req)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, product)
}

func (h *ManageHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	if err := h.service.DeleteProduct(r.Context(), callerID(r), id); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Subscribers

// ListSubscribers returns subscribers newest first; ?active=true hides deactivated ones
func (h *ManageHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	var req linkbio.ListSubscribersRequest
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			renderError(w, r, h.logger, badRequest("active", "must be a boolean"))
			return
		}
		req.ActiveOnly = active
	}
	subscribers, err := h.service.ListSubscribers(r.Context(), callerID(r), req)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, subscribers)
}

func (h *ManageHandler) UpdateSubscriber(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	var req linkbio.UpdateSubscriberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	subscriber, err := h.service.UpdateSubscriber(r.Context(), callerID(r), id, req)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, subscriber)
}

// Media

// UploadMedia accepts a multipart "file" field and returns the stored object
func (h *ManageHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		renderError(w, r, h.logger, badRequest("file", "invalid multipart upload: "+err.Error()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		renderError(w, r, h.logger, badRequest("file", "is required"))
		return
	}
	defer file.Close()

	object, err := h.service.UploadMedia(r.Context(), callerID(r), linkbio.UploadMediaRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Media uploaded", "key", object.Key, "size", object.Size)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, object)
}

// DeleteMedia removes one of the caller's uploads by key
func (h *ManageHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if err := h.service.DeleteMedia(r.Context(), callerID(r), key); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	h.logger.Info("Media deleted", "key", key)
	w.WriteHeader(http.StatusNoContent)
}

// callerID returns the owner resolved by RequireOwner
func callerID(r *http.Request) uuid.UUID {
	id, _ := auth.OwnerID(r.Context())
	return id
}
