package linkbio

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Repository defines the interface for content persistence.
//
// Implementations return the entity NotFound errors from errors.go for
// missing rows (including zero-row updates and deletes), ErrDuplicateEmail
// for a repeated subscriber email and wrap connection failures with
// ErrStoreUnavailable.
type Repository interface {
	// Owner operations
	UpsertOwner(ctx context.Context, owner *Owner) (*Owner, error)
	GetOwner(ctx context.Context, id uuid.UUID) (*Owner, error)

	// Profile operations
	GetProfile(ctx context.Context, ownerID uuid.UUID) (*Profile, error)
	UpsertProfile(ctx context.Context, profile *Profile) error

	// Link operations
	CreateLink(ctx context.Context, link *Link) error
	GetLink(ctx context.Context, id uuid.UUID) (*Link, error)
	UpdateLink(ctx context.Context, link *Link) error
	DeleteLink(ctx context.Context, id uuid.UUID) error
	ListLinks(ctx context.Context, ownerID uuid.UUID) ([]*Link, error)

	// Carousel operations
	CreateCarouselImage(ctx context.Context, image *CarouselImage) error
	GetCarouselImage(ctx context.Context, id uuid.UUID) (*CarouselImage, error)
	UpdateCarouselImage(ctx context.Context, image *CarouselImage) error
	DeleteCarouselImage(ctx context.Context, id uuid.UUID) error
	ListCarouselImages(ctx context.Context, ownerID uuid.UUID) ([]*CarouselImage, error)

	// Product operations
	CreateProduct(ctx context.Context, product *Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	UpdateProduct(ctx context.Context, product *Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, ownerID uuid.UUID) ([]*Product, error)

	// Subscriber operations
	CreateSubscriber(ctx context.Context, subscriber *Subscriber) error
	GetSubscriber(ctx context.Context, id uuid.UUID) (*Subscriber, error)
	UpdateSubscriber(ctx context.Context, subscriber *Subscriber) error
	// ListSubscribers returns subscribers newest first
	ListSubscribers(ctx context.Context, activeOnly bool) ([]*Subscriber, error)

	// Click operations
	// RecordClick appends a click, returning ErrLinkNotFound when the link does not exist
	RecordClick(ctx context.Context, click *LinkClick) error
	// CountClicksByLink returns one row per link owned by ownerID, with zero counts included
	CountClicksByLink(ctx context.Context, ownerID uuid.UUID) ([]*LinkClickStat, error)
}

// MediaStore stores uploaded images and returns their public URLs.
type MediaStore interface {
	// Put stores the object under key and returns where it is served from
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (*MediaObject, error)

	// Delete removes the object stored under key
	Delete(ctx context.Context, key string) error
}

// MediaReader is implemented by media stores that serve their own objects
// (memory and filesystem) rather than handing out external URLs.
type MediaReader interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// EventSink receives content change notifications.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}
