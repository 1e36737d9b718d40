package linkbio

import (
	"time"

	"github.com/google/uuid"
)

// Role is the display role of an owner account.
type Role string

const (
	RoleOwner Role = "owner"
	RoleOther Role = "other"
)

// Owner is an authenticated principal that owns content.
type Owner struct {
	ID           uuid.UUID `json:"id"`
	Subject      string    `json:"subject"`
	Name         *string   `json:"name"`
	Email        *string   `json:"email"`
	LoginMethod  *string   `json:"loginMethod"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastSignedIn time.Time `json:"lastSignedIn"`
}

// SocialLinks maps a social network name to a profile URL. Keys are free-form;
// see WellKnownSocialNetworks for the names presentation layers recognize.
type SocialLinks map[string]string

// WellKnownSocialNetworks lists the social link keys that clients render
// with a dedicated icon. Other keys are stored and returned unchanged.
var WellKnownSocialNetworks = []string{
	"instagram",
	"youtube",
	"tiktok",
	"twitter",
	"twitch",
	"discord",
	"telegram",
	"email",
}

// Profile is the public header of an owner's page. There is at most one per owner.
type Profile struct {
	ID                 uuid.UUID   `json:"id"`
	OwnerID            uuid.UUID   `json:"ownerId"`
	DisplayName        string      `json:"displayName"`
	Bio                *string     `json:"bio"`
	InstagramHandle    *string     `json:"instagramHandle"`
	ProfileImageURL    *string     `json:"profileImageUrl"`
	BackgroundImageURL *string     `json:"backgroundImageUrl"`
	BackgroundColor    *string     `json:"backgroundColor"`
	SocialLinks        SocialLinks `json:"socialLinks"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// Link is a titled outbound link shown on the public page.
type Link struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description *string   `json:"description"`
	IsPriority  bool      `json:"isPriority"`
	IsActive    bool      `json:"isActive"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CarouselImage is a featured image with an optional click-through URL.
type CarouselImage struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"ownerId"`
	ImageURL  string    `json:"imageUrl"`
	Title     *string   `json:"title"`
	LinkURL   *string   `json:"linkUrl"`
	SortOrder int       `json:"sortOrder"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Product is an affiliate product card. Price is a display string, not a number.
type Product struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"ownerId"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	ImageURL     string    `json:"imageUrl"`
	AffiliateURL string    `json:"affiliateUrl"`
	Price        *string   `json:"price"`
	SortOrder    int       `json:"sortOrder"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Subscriber is a newsletter sign-up. Emails are unique across the store.
type Subscriber struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
	IsActive     bool      `json:"isActive"`
}

// LinkClick is an immutable click event recorded against a link.
type LinkClick struct {
	ID        uuid.UUID `json:"id"`
	LinkID    uuid.UUID `json:"linkId"`
	ClickedAt time.Time `json:"clickedAt"`
	IPAddress *string   `json:"ipAddress"`
	UserAgent *string   `json:"userAgent"`
}

// LinkClickStat is the click count of a single link.
type LinkClickStat struct {
	LinkID     uuid.UUID `json:"linkId"`
	Title      string    `json:"title"`
	IsPriority bool      `json:"isPriority"`
	SortOrder  int       `json:"sortOrder"`
	ClickCount int64     `json:"clickCount"`
}

// ClickStats is the owner's click report.
type ClickStats struct {
	TotalClicks int64            `json:"totalClicks"`
	Links       []*LinkClickStat `json:"links"`
}

// MediaObject describes an uploaded image.
type MediaObject struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// EventType identifies a content change published to an EventSink.
type EventType string

const (
	EventProfileUpdated       EventType = "profile.updated"
	EventLinkCreated          EventType = "link.created"
	EventLinkUpdated          EventType = "link.updated"
	EventLinkDeleted          EventType = "link.deleted"
	EventLinkClicked          EventType = "link.clicked"
	EventCarouselImageCreated EventType = "carousel_image.created"
	EventCarouselImageUpdated EventType = "carousel_image.updated"
	EventCarouselImageDeleted EventType = "carousel_image.deleted"
	EventProductCreated       EventType = "product.created"
	EventProductUpdated       EventType = "product.updated"
	EventProductDeleted       EventType = "product.deleted"
	EventSubscriberCreated    EventType = "subscriber.created"
	EventSubscriberUpdated    EventType = "subscriber.updated"
	EventMediaUploaded        EventType = "media.uploaded"
	EventMediaDeleted         EventType = "media.deleted"
)

// Event is a notification about a change to stored content.
type Event struct {
	Type       EventType `json:"type"`
	OwnerID    uuid.UUID `json:"ownerId"`
	EntityID   uuid.UUID `json:"entityId"`
	OccurredAt time.Time `json:"occurredAt"`
}
