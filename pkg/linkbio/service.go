package linkbio

import (
	"context"

	"github.com/google/uuid"
)

// Service is the main interface for the link-in-bio content library.
//
// Public methods are scoped to the published owner configured with
// WithPublishedOwner and only return active content. Owner methods take the
// authenticated caller's owner ID; uuid.Nil is rejected with ErrUnauthorized
// and resources owned by someone else with ErrForbidden.
//
// Read methods return empty results instead of ErrStoreUnavailable when the
// store cannot be reached. Writes always report the failure.
type Service interface {
	// Public surface
	GetPublicProfile(ctx context.Context) (*Profile, error)
	ListPublicLinks(ctx context.Context) ([]*Link, error)
	ListPublicCarouselImages(ctx context.Context) ([]*CarouselImage, error)
	ListPublicProducts(ctx context.Context) ([]*Product, error)
	// ResolveLink returns an active link of the published owner for redirects
	ResolveLink(ctx context.Context, id uuid.UUID) (*Link, error)
	TrackClick(ctx context.Context, req TrackClickRequest) (*LinkClick, error)
	Subscribe(ctx context.Context, req SubscribeRequest) (*Subscriber, error)

	// Accounts
	SignIn(ctx context.Context, req SignInRequest) (*Owner, error)
	GetOwner(ctx context.Context, id uuid.UUID) (*Owner, error)

	// Profile management
	GetProfile(ctx context.Context, caller uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, caller uuid.UUID, req UpdateProfileRequest) (*Profile, error)

	// Link management
	ListLinks(ctx context.Context, caller uuid.UUID) ([]*Link, error)
	CreateLink(ctx context.Context, caller uuid.UUID, req CreateLinkRequest) (*Link, error)
	UpdateLink(ctx context.Context, caller, id uuid.UUID, req UpdateLinkRequest) (*Link, error)
	DeleteLink(ctx context.Context, caller, id uuid.UUID) error
	// LinkStats reports clicks per link; limit > 0 keeps only the top rows
	LinkStats(ctx context.Context, caller uuid.UUID, limit int) (*ClickStats, error)

	// Carousel management
	ListCarouselImages(ctx context.Context, caller uuid.UUID) ([]*CarouselImage, error)
	CreateCarouselImage(ctx context.Context, caller uuid.UUID, req CreateCarouselImageRequest) (*CarouselImage, error)
	UpdateCarouselImage(ctx context.Context, caller, id uuid.UUID, req UpdateCarouselImageRequest) (*CarouselImage, error)
	DeleteCarouselImage(ctx context.Context, caller, id uuid.UUID) error

	// Product management
	ListProducts(ctx context.Context, caller uuid.UUID) ([]*Product, error)
	CreateProduct(ctx context.Context, caller uuid.UUID, req CreateProductRequest) (*Product, error)
	UpdateProduct(ctx context.Context, caller, id uuid.UUID, req UpdateProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, caller, id uuid.UUID) error

	// Newsletter management
	ListSubscribers(ctx context.Context, caller uuid.UUID, req ListSubscribersRequest) ([]*Subscriber, error)
	UpdateSubscriber(ctx context.Context, caller, id uuid.UUID, req UpdateSubscriberRequest) (*Subscriber, error)

	// Media
	UploadMedia(ctx context.Context, caller uuid.UUID, req UploadMediaRequest) (*MediaObject, error)
	DeleteMedia(ctx context.Context, caller uuid.UUID, key string) error
}
