package linkbio

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxUploadSize is the upload limit used when none is configured.
const DefaultMaxUploadSize int64 = 10 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/avif": ".avif",
}

// MediaKey returns the object key for an upload: <owner>/<id><ext>.
func MediaKey(ownerID, id uuid.UUID, contentType string) string {
	return fmt.Sprintf("%s/%s%s", ownerID, id, imageExtensions[contentType])
}

func mediaContentType(req UploadMediaRequest) string {
	contentType, _, err := mime.ParseMediaType(req.ContentType)
	if err == nil && contentType != "application/octet-stream" {
		return strings.ToLower(contentType)
	}
	ext := strings.ToLower(path.Ext(req.FileName))
	for ct, e := range imageExtensions {
		if e == ext || (ext == ".jpeg" && ct == "image/jpeg") {
			return ct
		}
	}
	return ""
}

func (s *service) UploadMedia(ctx context.Context, caller uuid.UUID, req UploadMediaRequest) (*MediaObject, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if s.media == nil {
		return nil, ErrMediaUnavailable
	}
	if req.Body == nil {
		return nil, invalid("file", "is required")
	}
	if req.Size > s.maxUploadSize {
		return nil, invalid("file", "must be at most %d bytes", s.maxUploadSize)
	}
	contentType := mediaContentType(req)
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMedia, req.ContentType)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	key := MediaKey(caller, id, contentType)
	object, err := s.media.Put(ctx, key, contentType, io.LimitReader(req.Body, s.maxUploadSize), req.Size)
	if err != nil {
		return nil, &OpError{Entity: "media", ID: id, Op: "upload", Err: err}
	}
	s.publish(ctx, EventMediaUploaded, caller, id)
	return object, nil
}

// ParseMediaKey splits a key produced by MediaKey into its owner and upload IDs.
func ParseMediaKey(key string) (ownerID, id uuid.UUID, err error) {
	owner, file, ok := strings.Cut(key, "/")
	if !ok || strings.Contains(file, "/") {
		return uuid.Nil, uuid.Nil, invalid("key", "must be <owner>/<file>")
	}
	if ownerID, err = uuid.Parse(owner); err != nil {
		return uuid.Nil, uuid.Nil, invalid("key", "owner must be a UUID")
	}
	if id, err = uuid.Parse(strings.TrimSuffix(file, path.Ext(file))); err != nil {
		return uuid.Nil, uuid.Nil, invalid("key", "file must be a UUID")
	}
	return ownerID, id, nil
}

func (s *service) DeleteMedia(ctx context.Context, caller uuid.UUID, key string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if s.media == nil {
		return ErrMediaUnavailable
	}
	ownerID, id, err := ParseMediaKey(key)
	if err != nil {
		return err
	}
	if err := authorize(caller, ownerID); err != nil {
		return err
	}
	if err := s.media.Delete(ctx, key); err != nil {
		return &OpError{Entity: "media", ID: id, Op: "delete", Err: err}
	}
	s.publish(ctx, EventMediaDeleted, caller, id)
	return nil
}
