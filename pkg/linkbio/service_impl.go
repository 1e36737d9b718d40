package linkbio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository     Repository
	media          MediaStore
	eventSink      EventSink
	logger         *slog.Logger
	publishedOwner uuid.UUID
	adminSubject   string
	maxUploadSize  int64
	now            func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithMediaStore sets the store used for image uploads
func WithMediaStore(store MediaStore) Option {
	return func(s *service) {
		s.media = store
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger used for degraded reads and event failures
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPublishedOwner sets the owner whose content the public surface serves
func WithPublishedOwner(ownerID uuid.UUID) Option {
	return func(s *service) {
		s.publishedOwner = ownerID
	}
}

// WithAdminSubject marks the login subject that holds the owner role. When a
// published owner is configured, the first sign-in of this subject claims
// the published owner ID.
func WithAdminSubject(subject string) Option {
	return func(s *service) {
		s.adminSubject = subject
	}
}

// WithMaxUploadSize bounds media uploads in bytes
func WithMaxUploadSize(size int64) Option {
	return func(s *service) {
		if size > 0 {
			s.maxUploadSize = size
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		eventSink:     NewNoopEventSink(),
		logger:        slog.Default(),
		maxUploadSize: DefaultMaxUploadSize,
		now:           func() time.Time { return time.Now().UTC() },
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}

	return s, nil
}

// Helpers

func (s *service) publish(ctx context.Context, typ EventType, ownerID, entityID uuid.UUID) {
	if s.eventSink == nil {
		return
	}
	event := Event{Type: typ, OwnerID: ownerID, EntityID: entityID, OccurredAt: s.now()}
	if err := s.eventSink.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "type", typ, "entity_id", entityID, "error", err)
	}
}

// degrade turns ErrStoreUnavailable into an empty result for read paths.
func degrade[T any](logger *slog.Logger, op string, items []T, err error) ([]T, error) {
	if err == nil {
		return items, nil
	}
	if errors.Is(err, ErrStoreUnavailable) {
		logger.Warn("Content store unavailable, serving empty result", "op", op, "error", err)
		return []T{}, nil
	}
	return nil, err
}

func authorize(caller, ownerID uuid.UUID) error {
	if caller == uuid.Nil {
		return ErrUnauthorized
	}
	if caller != ownerID {
		return ErrForbidden
	}
	return nil
}

func requireCaller(caller uuid.UUID) error {
	if caller == uuid.Nil {
		return ErrUnauthorized
	}
	return nil
}

// requireDeploymentOwner guards deployment-wide data such as subscribers.
func (s *service) requireDeploymentOwner(caller uuid.UUID) error {
	if caller == uuid.Nil {
		return ErrUnauthorized
	}
	if s.publishedOwner != uuid.Nil && caller != s.publishedOwner {
		return ErrForbidden
	}
	return nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// Public surface

func (s *service) GetPublicProfile(ctx context.Context) (*Profile, error) {
	if s.publishedOwner == uuid.Nil {
		return nil, nil
	}
	return s.getProfile(ctx, s.publishedOwner)
}

func (s *service) ListPublicLinks(ctx context.Context) ([]*Link, error) {
	if s.publishedOwner == uuid.Nil {
		return []*Link{}, nil
	}
	links, err := s.repository.ListLinks(ctx, s.publishedOwner)
	links, err = degrade(s.logger, "list public links", links, err)
	if err != nil {
		return nil, err
	}
	return OrderLinks(links, ModePublic), nil
}

func (s *service) ListPublicCarouselImages(ctx context.Context) ([]*CarouselImage, error) {
	if s.publishedOwner == uuid.Nil {
		return []*CarouselImage{}, nil
	}
	images, err := s.repository.ListCarouselImages(ctx, s.publishedOwner)
	images, err = degrade(s.logger, "list public carousel images", images, err)
	if err != nil {
		return nil, err
	}
	return OrderCarouselImages(images, ModePublic), nil
}

func (s *service) ListPublicProducts(ctx context.Context) ([]*Product, error) {
	if s.publishedOwner == uuid.Nil {
		return []*Product{}, nil
	}
	products, err := s.repository.ListProducts(ctx, s.publishedOwner)
	products, err = degrade(s.logger, "list public products", products, err)
	if err != nil {
		return nil, err
	}
	return OrderProducts(products, ModePublic), nil
}

// publicLink loads a link visitors may reach: active and owned by the
// published owner. Anything else reads as ErrLinkNotFound.
func (s *service) publicLink(ctx context.Context, id uuid.UUID, op string) (*Link, error) {
	link, err := s.repository.GetLink(ctx, id)
	if err != nil {
		return nil, &OpError{Entity: "link", ID: id, Op: op, Err: err}
	}
	if !link.IsActive || s.publishedOwner == uuid.Nil || link.OwnerID != s.publishedOwner {
		return nil, &OpError{Entity: "link", ID: id, Op: op, Err: ErrLinkNotFound}
	}
	return link, nil
}

func (s *service) ResolveLink(ctx context.Context, id uuid.UUID) (*Link, error) {
	return s.publicLink(ctx, id, "resolve")
}

func (s *service) TrackClick(ctx context.Context, req TrackClickRequest) (*LinkClick, error) {
	if req.LinkID == uuid.Nil {
		return nil, invalid("linkId", "is required")
	}
	link, err := s.publicLink(ctx, req.LinkID, "track click")
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	click := &LinkClick{
		ID:        id,
		LinkID:    req.LinkID,
		ClickedAt: s.now(),
		IPAddress: truncateOptional(req.IPAddress, maxIPAddressLength),
		UserAgent: truncateOptional(req.UserAgent, maxUserAgentLength),
	}
	if err := s.repository.RecordClick(ctx, click); err != nil {
		return nil, &OpError{Entity: "link", ID: req.LinkID, Op: "track click", Err: err}
	}
	s.publish(ctx, EventLinkClicked, link.OwnerID, req.LinkID)
	return click, nil
}

func (s *service) Subscribe(ctx context.Context, req SubscribeRequest) (*Subscriber, error) {
	email := NormalizeEmail(req.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	subscriber := &Subscriber{
		ID:           id,
		Email:        email,
		SubscribedAt: s.now(),
		IsActive:     true,
	}
	if err := s.repository.CreateSubscriber(ctx, subscriber); err != nil {
		return nil, &OpError{Entity: "subscriber", Op: "subscribe", Err: err}
	}
	s.publish(ctx, EventSubscriberCreated, uuid.Nil, subscriber.ID)
	return subscriber, nil
}

// Accounts

func (s *service) SignIn(ctx context.Context, req SignInRequest) (*Owner, error) {
	if req.Subject == "" {
		return nil, invalid("subject", "is required")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	role := RoleOther
	if s.adminSubject != "" && req.Subject == s.adminSubject {
		role = RoleOwner
		if s.publishedOwner != uuid.Nil {
			id = s.publishedOwner
		}
	}
	now := s.now()
	owner, err := s.repository.UpsertOwner(ctx, &Owner{
		ID:           id,
		Subject:      req.Subject,
		Name:         normalizeOptional(req.Name),
		Email:        normalizeOptional(req.Email),
		LoginMethod:  normalizeOptional(req.LoginMethod),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastSignedIn: now,
	})
	if err != nil {
		return nil, &OpError{Entity: "owner", Op: "sign in", Err: err}
	}
	return s.withDisplayRole(owner), nil
}

func (s *service) GetOwner(ctx context.Context, id uuid.UUID) (*Owner, error) {
	if id == uuid.Nil {
		return nil, ErrUnauthorized
	}
	owner, err := s.repository.GetOwner(ctx, id)
	if err != nil {
		return nil, &OpError{Entity: "owner", ID: id, Op: "get", Err: err}
	}
	return s.withDisplayRole(owner), nil
}

func (s *service) withDisplayRole(owner *Owner) *Owner {
	if s.publishedOwner != uuid.Nil && owner.ID == s.publishedOwner {
		owner.Role = RoleOwner
	}
	return owner
}

// Profile management

func (s *service) getProfile(ctx context.Context, ownerID uuid.UUID) (*Profile, error) {
	profile, err := s.repository.GetProfile(ctx, ownerID)
	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, ErrProfileNotFound):
		return nil, nil
	case errors.Is(err, ErrStoreUnavailable):
		s.logger.Warn("Content store unavailable, serving empty profile", "owner_id", ownerID, "error", err)
		return nil, nil
	default:
		return nil, &OpError{Entity: "profile", ID: ownerID, Op: "get", Err: err}
	}
}

func (s *service) GetProfile(ctx context.Context, caller uuid.UUID) (*Profile, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return s.getProfile(ctx, caller)
}

func (s *service) UpdateProfile(ctx context.Context, caller uuid.UUID, req UpdateProfileRequest) (*Profile, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	profile, err := s.repository.GetProfile(ctx, caller)
	if errors.Is(err, ErrProfileNotFound) {
		id, idErr := uuid.NewV7()
		if idErr != nil {
			return nil, idErr
		}
		profile, err = &Profile{ID: id, OwnerID: caller, CreatedAt: now}, nil
	}
	if err != nil {
		return nil, &OpError{Entity: "profile", ID: caller, Op: "update", Err: err}
	}

	profile.DisplayName = req.DisplayName
	if req.Bio != nil {
		profile.Bio = normalizeOptional(req.Bio)
	}
	if req.InstagramHandle != nil {
		profile.InstagramHandle = normalizeOptional(req.InstagramHandle)
	}
	if req.ProfileImageURL != nil {
		profile.ProfileImageURL = normalizeOptional(req.ProfileImageURL)
	}
	if req.BackgroundImageURL != nil {
		profile.BackgroundImageURL = normalizeOptional(req.BackgroundImageURL)
	}
	if req.BackgroundColor != nil {
		profile.BackgroundColor = normalizeOptional(req.BackgroundColor)
	}
	if req.SocialLinks != nil {
		profile.SocialLinks = maps.Clone(req.SocialLinks)
	}
	profile.UpdatedAt = now

	if err := s.repository.UpsertProfile(ctx, profile); err != nil {
		return nil, &OpError{Entity: "profile", ID: caller, Op: "update", Err: err}
	}
	s.publish(ctx, EventProfileUpdated, caller, profile.ID)
	return profile, nil
}

// Link management

func (s *service) ListLinks(ctx context.Context, caller uuid.UUID) ([]*Link, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	links, err := s.repository.ListLinks(ctx, caller)
	links, err = degrade(s.logger, "list links", links, err)
	if err != nil {
		return nil, err
	}
	return OrderLinks(links, ModeManaged), nil
}

func (s *service) CreateLink(ctx context.Context, caller uuid.UUID, req CreateLinkRequest) (*Link, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	now := s.now()
	link := &Link{
		ID:          id,
		OwnerID:     caller,
		Title:       req.Title,
		URL:         req.URL,
		Description: normalizeOptional(req.Description),
		IsPriority:  boolOr(req.IsPriority, false),
		IsActive:    boolOr(req.IsActive, true),
		SortOrder:   intOr(req.SortOrder, 0),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repository.CreateLink(ctx, link); err != nil {
		return nil, &OpError{Entity: "link", ID: link.ID, Op: "create", Err: err}
	}
	s.publish(ctx, EventLinkCreated, caller, link.ID)
	return link, nil
}

func (s *service) UpdateLink(ctx context.Context, caller, id uuid.UUID, req UpdateLinkRequest) (*Link, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	link, err := s.repository.GetLink(ctx, id)
	if err != nil {
		return nil, &OpError{Entity: "link", ID: id, Op: "update", Err: err}
	}
	if err := authorize(caller, link.OwnerID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		link.Title = *req.Title
	}
	if req.URL != nil {
		link.URL = *req.URL
	}
	if req.Description != nil {
		link.Description = normalizeOptional(req.Description)
	}
	if req.IsPriority != nil {
		link.IsPriority = *req.IsPriority
	}
	if req.IsActive != nil {
		link.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		link.SortOrder = *req.SortOrder
	}
	link.UpdatedAt = s.now()

	if err := s.repository.UpdateLink(ctx, link); err != nil {
		return nil, &OpError{Entity: "link", ID: id, Op: "update", Err: err}
	}
	s.publish(ctx, EventLinkUpdated, caller, id)
	return link, nil
}

func (s *service) DeleteLink(ctx context.Context, caller, id uuid.UUID) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	link, err := s.repository.GetLink(ctx, id)
	if err != nil {
		return &OpError{Entity: "link", ID: id, Op: "delete", Err: err}
	}
	if err := authorize(caller, link.OwnerID); err != nil {
		return err
	}
	if err := s.repository.DeleteLink(ctx, id); err != nil {
		return &OpError{Entity: "link", ID: id, Op: "delete", Err: err}
	}
	s.publish(ctx, EventLinkDeleted, caller, id)
	return nil
}

func (s *service) LinkStats(ctx context.Context, caller uuid.UUID, limit int) (*ClickStats, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	rows, err := s.repository.CountClicksByLink(ctx, caller)
	rows, err = degrade(s.logger, "link stats", rows, err)
	if err != nil {
		return nil, &OpError{Entity: "link", Op: "stats", Err: err}
	}

	orderClickStats(rows)
	stats := &ClickStats{Links: rows}
	for _, row := range rows {
		stats.TotalClicks += row.ClickCount
	}
	if limit > 0 && len(stats.Links) > limit {
		stats.Links = stats.Links[:limit]
	}
	return stats, nil
}

// Carousel management

func (s *service) ListCarouselImages(ctx context.Context, caller uuid.UUID) ([]*CarouselImage, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	images, err := s.repository.ListCarouselImages(ctx, caller)
	images, err = degrade(s.logger, "list carousel images", images, err)
	if err != nil {
		return nil, err
	}
	return OrderCarouselImages(images, ModeManaged), nil
}

func (s *service) CreateCarouselImage(ctx context.Context, caller uuid.UUID, req CreateCarouselImageRequest) (*CarouselImage, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	now := s.now()
	image := &CarouselImage{
		ID:        id,
		OwnerID:   caller,
		ImageURL:  req.ImageURL,
		Title:     normalizeOptional(req.Title),
		LinkURL:   normalizeOptional(req.LinkURL),
		SortOrder: intOr(req.SortOrder, 0),
		IsActive:  boolOr(req.IsActive, true),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repository.CreateCarouselImage(ctx, image); err != nil {
		return nil, &OpError{Entity: "carousel image", ID: id, Op: "create", Err: err}
	}
	s.publish(ctx, EventCarouselImageCreated, caller, id)
	return image, nil
}

func (s *service) UpdateCarouselImage(ctx context.Context, caller, id uuid.UUID, req UpdateCarouselImageRequest) (*CarouselImage, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	image, err := s.repository.GetCarouselImage(ctx, id)
	if err != nil {
		return nil, &OpError{Entity: "carousel image", ID: id, Op: "update", Err: err}
	}
	if err := authorize(caller, image.OwnerID); err != nil {
		return nil, err
	}

	if req.ImageURL != nil {
		image.ImageURL = *req.ImageURL
	}
	if req.Title != nil {
		image.Title = normalizeOptional(req.Title)
	}
	if req.LinkURL != nil {
		image.LinkURL = normalizeOptional(req.LinkURL)
	}
	if req.SortOrder != nil {
		image.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		image.IsActive = *req.IsActive
	}
	image.UpdatedAt = s.now()

	if err := s.repository.UpdateCarouselImage(ctx, image); err != nil {
		return nil, &OpError{Entity: "carousel image", ID: id, Op: "update", Err: err}
	}
	s.publish(ctx, EventCarouselImageUpdated, caller, id)
	return image, nil
}

func (s *service) DeleteCarouselImage(ctx context.Context, caller, id uuid.UUID) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	image, err := s.repository.GetCarouselImage(ctx, id)
	if err != nil {
		return &OpError{Entity: "carousel image", ID: id, Op: "delete", Err: err}
	}
	if err := authorize(caller, image.OwnerID); err != nil {
		return err
	}
	if err := s.repository.DeleteCarouselImage(ctx, id); err != nil {
		return &OpError{Entity: "carousel image", ID: id, Op: "delete", Err: err}
	}
	s.publish(ctx, EventCarouselImageDeleted, caller, id)
	return nil
}

// Product management

func (s *service) ListProducts(ctx context.Context, caller uuid.UUID) ([]*Product, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	products, err := s.repository.ListProducts(ctx, caller)
	products, err = degrade(s.logger, "list products", products, err)
	if err != nil {
		return nil, err
	}
	return OrderProducts(products, ModeManaged), nil
}

func (s *service) CreateProduct(ctx context.Context, caller uuid.UUID, req CreateProductRequest) (*Product, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	now := s.now()
	product := &Product{
		ID:           id,
		OwnerID:      caller,
		Name:         req.Name,
		Description:  normalizeOptional(req.Description),
		ImageURL:     req.ImageURL,
		AffiliateURL: req.AffiliateURL,
		Price:        normalizeOptional(req.Price),
		SortOrder:    intOr(req.SortOrder, 0),
		IsActive:     boolOr(req.IsActive, true),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repository.CreateProduct(ctx, product); err != nil {
		return nil, &OpError{Entity: "product", ID: id, Op: "create", Err: err}
	}
	s.publish(ctx, EventProductCreated, caller, id)
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, caller, id uuid.UUID, req UpdateProductRequest) (*Product, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	product, err := s.repository.GetProduct(ctx, id)
	if err != nil {
		return nil, &OpError{Entity: "product", ID: id, Op: "update", Err: err}
	}
	if err := authorize(caller, product.OwnerID); err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = normalizeOptional(req.Description)
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.AffiliateURL != nil {
		product.AffiliateURL = *req.AffiliateURL
	}
	if req.Price != nil {
		product.Price = normalizeOptional(req.Price)
	}
	if req.SortOrder != nil {
		product.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	product.UpdatedAt = s.now()

	if err := s.repository.UpdateProduct(ctx, product); err != nil {
		return nil, &OpError{Entity: "product", ID: id, Op: "update", Err: err}
	}
	s.publish(ctx, EventProductUpdated, caller, id)
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, caller, id uuid.UUID) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	product, err := s.repository.GetProduct(ctx, id)
	if err != nil {
		return &OpError{Entity: "product", ID: id, Op: "delete", Err: err}
	}
	if err := authorize(caller, product.OwnerID); err != nil {
		return err
	}
	if err := s.repository.DeleteProduct(ctx, id); err != nil {
		return &OpError{Entity: "product", ID: id, Op: "delete", Err: err}
	}
	s.publish(ctx, EventProductDeleted, caller, id)
	return nil
}

// Newsletter management

func (s *service) ListSubscribers(ctx context.Context, caller uuid.UUID, req ListSubscribersRequest) ([]*Subscriber, error) {
	if err := s.requireDeploymentOwner(caller); err != nil {
		return nil, err
	}
	subscribers, err := s.repository.ListSubscribers(ctx, req.ActiveOnly)
	return degrade(s.logger, "list subscribers", subscribers, err)
}

func (s *service) UpdateSubscriber(ctx context.Context, caller, id uuid.UUID, req UpdateSubscriberRequest) (*Subscriber, error) {
	if err := s.requireDeploymentOwner(caller); err != nil {
		return nil, err
	}
	subscriber, err := s.repository.GetSubscriber(ctx, id)
	if err != nil {
		return nil, &OpError{Entity: "subscriber", ID: id, Op: "update", Err: err}
	}
	if req.IsActive != nil {
		subscriber.IsActive = *req.IsActive
	}
	if err := s.repository.UpdateSubscriber(ctx, subscriber); err != nil {
		return nil, &OpError{Entity: "subscriber", ID: id, Op: "update", Err: err}
	}
	s.publish(ctx, EventSubscriberUpdated, caller, id)
	return subscriber, nil
}
