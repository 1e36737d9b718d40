package linkbio

import (
	"math"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	maxDisplayNameLength     = 100
	maxInstagramHandleLength = 100
	maxBackgroundColorLength = 32
	maxTitleLength           = 200
	maxPriceLength           = 50
	maxEmailLength           = 320
	maxIPAddressLength       = 45
	maxUserAgentLength       = 1024
)

func requireText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return maxLength(field, value, max)
}

func maxLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return invalid(field, "must be at most %d characters", max)
	}
	return nil
}

func optionalMaxLength(field string, value *string, max int) error {
	if value == nil {
		return nil
	}
	return maxLength(field, *value, max)
}

// validateSortOrder keeps sort keys within the INTEGER columns of the SQL stores.
func validateSortOrder(v *int) error {
	if v == nil {
		return nil
	}
	if *v < math.MinInt32 || *v > math.MaxInt32 {
		return invalid("sortOrder", "must be between %d and %d", math.MinInt32, math.MaxInt32)
	}
	return nil
}

// validateURL accepts absolute URLs with a scheme and either a host or an
// opaque part (mailto:, tel:). Script URLs are rejected.
func validateURL(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return invalid(field, "is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || (u.Host == "" && u.Opaque == "") {
		return invalid(field, "must be a valid URL")
	}
	switch strings.ToLower(u.Scheme) {
	case "javascript", "data", "vbscript":
		return invalid(field, "scheme %q is not allowed", u.Scheme)
	}
	return nil
}

// validateOptionalURL treats nil and empty as absent.
func validateOptionalURL(field string, raw *string) error {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	return validateURL(field, *raw)
}

// NormalizeEmail trims surrounding space and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks a bare address such as "someone@example.com".
func ValidateEmail(email string) error {
	if email == "" {
		return invalid("email", "is required")
	}
	if err := maxLength("email", email, maxEmailLength); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return invalid("email", "must be a valid email address")
	}
	return nil
}

// Validate checks the profile fields
func (r UpdateProfileRequest) Validate() error {
	if err := requireText("displayName", r.DisplayName, maxDisplayNameLength); err != nil {
		return err
	}
	if err := optionalMaxLength("instagramHandle", r.InstagramHandle, maxInstagramHandleLength); err != nil {
		return err
	}
	if err := validateOptionalURL("profileImageUrl", r.ProfileImageURL); err != nil {
		return err
	}
	if err := validateOptionalURL("backgroundImageUrl", r.BackgroundImageURL); err != nil {
		return err
	}
	if err := optionalMaxLength("backgroundColor", r.BackgroundColor, maxBackgroundColorLength); err != nil {
		return err
	}
	for network := range r.SocialLinks {
		if strings.TrimSpace(network) == "" {
			return invalid("socialLinks", "network name cannot be empty")
		}
	}
	return nil
}

// Validate checks the link fields
func (r CreateLinkRequest) Validate() error {
	if err := requireText("title", r.Title, maxTitleLength); err != nil {
		return err
	}
	if err := validateSortOrder(r.SortOrder); err != nil {
		return err
	}
	return validateURL("url", r.URL)
}

// Validate checks the supplied link fields
func (r UpdateLinkRequest) Validate() error {
	if r.Title != nil {
		if err := requireText("title", *r.Title, maxTitleLength); err != nil {
			return err
		}
	}
	if r.URL != nil {
		if err := validateURL("url", *r.URL); err != nil {
			return err
		}
	}
	return validateSortOrder(r.SortOrder)
}

// Validate checks the carousel image fields
func (r CreateCarouselImageRequest) Validate() error {
	if err := validateURL("imageUrl", r.ImageURL); err != nil {
		return err
	}
	if err := optionalMaxLength("title", r.Title, maxTitleLength); err != nil {
		return err
	}
	if err := validateSortOrder(r.SortOrder); err != nil {
		return err
	}
	return validateOptionalURL("linkUrl", r.LinkURL)
}

// Validate checks the supplied carousel image fields
func (r UpdateCarouselImageRequest) Validate() error {
	if r.ImageURL != nil {
		if err := validateURL("imageUrl", *r.ImageURL); err != nil {
			return err
		}
	}
	if err := optionalMaxLength("title", r.Title, maxTitleLength); err != nil {
		return err
	}
	if err := validateSortOrder(r.SortOrder); err != nil {
		return err
	}
	return validateOptionalURL("linkUrl", r.LinkURL)
}

// Validate checks the product fields
func (r CreateProductRequest) Validate() error {
	if err := requireText("name", r.Name, maxTitleLength); err != nil {
		return err
	}
	if err := validateURL("imageUrl", r.ImageURL); err != nil {
		return err
	}
	if err := validateURL("affiliateUrl", r.AffiliateURL); err != nil {
		return err
	}
	if err := validateSortOrder(r.SortOrder); err != nil {
		return err
	}
	return optionalMaxLength("price", r.Price, maxPriceLength)
}

// Validate checks the supplied product fields
func (r UpdateProductRequest) Validate() error {
	if r.Name != nil {
		if err := requireText("name", *r.Name, maxTitleLength); err != nil {
			return err
		}
	}
	if r.ImageURL != nil {
		if err := validateURL("imageUrl", *r.ImageURL); err != nil {
			return err
		}
	}
	if r.AffiliateURL != nil {
		if err := validateURL("affiliateUrl", *r.AffiliateURL); err != nil {
			return err
		}
	}
	if err := validateSortOrder(r.SortOrder); err != nil {
		return err
	}
	return optionalMaxLength("price", r.Price, maxPriceLength)
}

// Validate checks the email address after normalization
func (r SubscribeRequest) Validate() error {
	return ValidateEmail(NormalizeEmail(r.Email))
}

// normalizeOptional maps blank strings to nil so omitted text never becomes "".
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// truncateOptional bounds telemetry strings instead of rejecting them.
func truncateOptional(s *string, max int) *string {
	s = normalizeOptional(s)
	if s == nil || utf8.RuneCountInString(*s) <= max {
		return s
	}
	runes := []rune(*s)
	cut := string(runes[:max])
	return &cut
}
