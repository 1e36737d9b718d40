package linkbio

import (
	"io"

	"github.com/google/uuid"
)

// UpdateProfileRequest upserts the caller's profile. DisplayName is always
// required; nil optional fields keep their stored value and empty strings
// clear it. A nil SocialLinks keeps the stored map, an empty one clears it.
type UpdateProfileRequest struct {
	DisplayName        string      `json:"displayName"`
	Bio                *string     `json:"bio,omitempty"`
	InstagramHandle    *string     `json:"instagramHandle,omitempty"`
	ProfileImageURL    *string     `json:"profileImageUrl,omitempty"`
	BackgroundImageURL *string     `json:"backgroundImageUrl,omitempty"`
	BackgroundColor    *string     `json:"backgroundColor,omitempty"`
	SocialLinks        SocialLinks `json:"socialLinks,omitempty"`
}

// CreateLinkRequest contains parameters for creating a link
type CreateLinkRequest struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Description *string `json:"description,omitempty"`
	IsPriority  *bool   `json:"isPriority,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
	SortOrder   *int    `json:"sortOrder,omitempty"`
}

// UpdateLinkRequest is a partial update; nil fields are left unchanged.
type UpdateLinkRequest struct {
	Title       *string `json:"title,omitempty"`
	URL         *string `json:"url,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPriority  *bool   `json:"isPriority,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
	SortOrder   *int    `json:"sortOrder,omitempty"`
}

// CreateCarouselImageRequest contains parameters for creating a carousel image
type CreateCarouselImageRequest struct {
	ImageURL  string  `json:"imageUrl"`
	Title     *string `json:"title,omitempty"`
	LinkURL   *string `json:"linkUrl,omitempty"`
	SortOrder *int    `json:"sortOrder,omitempty"`
	IsActive  *bool   `json:"isActive,omitempty"`
}

// UpdateCarouselImageRequest is a partial update; nil fields are left unchanged.
type UpdateCarouselImageRequest struct {
	ImageURL  *string `json:"imageUrl,omitempty"`
	Title     *string `json:"title,omitempty"`
	LinkURL   *string `json:"linkUrl,omitempty"`
	SortOrder *int    `json:"sortOrder,omitempty"`
	IsActive  *bool   `json:"isActive,omitempty"`
}

// CreateProductRequest contains parameters for creating a product
type CreateProductRequest struct {
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	ImageURL     string  `json:"imageUrl"`
	AffiliateURL string  `json:"affiliateUrl"`
	Price        *string `json:"price,omitempty"`
	SortOrder    *int    `json:"sortOrder,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// UpdateProductRequest is a partial update; nil fields are left unchanged.
type UpdateProductRequest struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	ImageURL     *string `json:"imageUrl,omitempty"`
	AffiliateURL *string `json:"affiliateUrl,omitempty"`
	Price        *string `json:"price,omitempty"`
	SortOrder    *int    `json:"sortOrder,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// TrackClickRequest records a click on a link
type TrackClickRequest struct {
	LinkID    uuid.UUID `json:"linkId"`
	IPAddress *string   `json:"ipAddress,omitempty"`
	UserAgent *string   `json:"userAgent,omitempty"`
}

// SubscribeRequest signs an email address up for the newsletter
type SubscribeRequest struct {
	Email string `json:"email"`
}

// ListSubscribersRequest filters the subscriber list
type ListSubscribersRequest struct {
	ActiveOnly bool
}

// UpdateSubscriberRequest changes a subscriber's status
type UpdateSubscriberRequest struct {
	IsActive *bool `json:"isActive,omitempty"`
}

// SignInRequest records a successful login for the given subject.
type SignInRequest struct {
	Subject     string
	Name        *string
	Email       *string
	LoginMethod *string
}

// UploadMediaRequest contains an image upload
type UploadMediaRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}
