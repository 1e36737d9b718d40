package linkbio

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrNotFound is matched by every entity-specific not found error
	ErrNotFound = errors.New("not found")

	// ErrOwnerNotFound indicates an owner account was not found
	ErrOwnerNotFound = fmt.Errorf("owner %w", ErrNotFound)

	// ErrProfileNotFound indicates the owner has no profile yet
	ErrProfileNotFound = fmt.Errorf("profile %w", ErrNotFound)

	// ErrLinkNotFound indicates a link was not found
	ErrLinkNotFound = fmt.Errorf("link %w", ErrNotFound)

	// ErrCarouselImageNotFound indicates a carousel image was not found
	ErrCarouselImageNotFound = fmt.Errorf("carousel image %w", ErrNotFound)

	// ErrProductNotFound indicates a product was not found
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)

	// ErrSubscriberNotFound indicates a subscriber was not found
	ErrSubscriberNotFound = fmt.Errorf("subscriber %w", ErrNotFound)

	// ErrMediaNotFound indicates an uploaded object was not found
	ErrMediaNotFound = fmt.Errorf("media %w", ErrNotFound)

	// ErrDuplicateEmail indicates the email is already subscribed
	ErrDuplicateEmail = errors.New("email is already subscribed")

	// ErrValidation is matched by every ValidationError
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates no authenticated owner identity was supplied
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden indicates the resource belongs to a different owner.
	// It matches ErrUnauthorized.
	ErrForbidden = fmt.Errorf("resource belongs to another owner: %w", ErrUnauthorized)

	// ErrStoreUnavailable indicates the content store cannot be reached
	ErrStoreUnavailable = errors.New("content store unavailable")

	// ErrMediaUnavailable indicates no media store is configured
	ErrMediaUnavailable = errors.New("media storage not configured")

	// ErrUnsupportedMedia indicates an upload that is not an accepted image type
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// ValidationError reports a malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// OpError wraps a store failure with the entity and operation involved.
type OpError struct {
	Entity string
	ID     uuid.UUID
	Op     string
	Err    error
}

func (e *OpError) Error() string {
	if e.ID == uuid.Nil {
		return fmt.Sprintf("%s %s failed: %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed for %s: %v", e.Entity, e.Op, e.ID, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
