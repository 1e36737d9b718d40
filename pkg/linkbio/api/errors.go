package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
)

// ErrorBody is the JSON error envelope
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps service errors onto HTTP status codes and error codes.
// ErrForbidden is checked before ErrUnauthorized because it wraps it.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, linkbio.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, linkbio.ErrDuplicateEmail):
		return http.StatusConflict, "duplicate_email"
	case errors.Is(err, linkbio.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, linkbio.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, linkbio.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, linkbio.ErrStoreUnavailable), errors.Is(err, linkbio.ErrMediaUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, linkbio.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType, "unsupported_media_type"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func renderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := statusFor(err)
	detail := ErrorDetail{Code: code, Message: err.Error(), RequestID: middleware.GetReqID(r.Context())}

	var validationErr *linkbio.ValidationError
	if errors.As(err, &validationErr) {
		detail.Field = validationErr.Field
		detail.Message = validationErr.Message
	}

	switch {
	case status >= 500:
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if status == http.StatusInternalServerError {
			detail.Message = "An internal server error occurred"
		}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		logger.Warn("Access denied", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorBody{Error: detail})
}

func badRequest(field, message string) error {
	return &linkbio.ValidationError{Field: field, Message: message}
}
