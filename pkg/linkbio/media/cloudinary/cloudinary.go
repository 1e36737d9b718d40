package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
)

// Config options for the Cloudinary backend
type Config struct {
	URL    string // cloudinary://<api_key>:<api_secret>@<cloud_name>
	Folder string // Optional folder prefix for uploaded assets
}

// Backend is a Cloudinary implementation of linkbio.MediaStore. Object keys
// returned from Put are Cloudinary public IDs.
type Backend struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// New creates a new Cloudinary media store
func New(config Config) (*Backend, error) {
	if config.URL == "" {
		return nil, errors.New("cloudinary URL is required")
	}
	cld, err := cloudinary.NewFromURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return &Backend{cld: cld, folder: strings.Trim(config.Folder, "/")}, nil
}

// PublicID maps an object key to the Cloudinary public ID it is stored under
func (b *Backend) PublicID(key string) string {
	id := strings.TrimSuffix(key, path.Ext(key))
	if b.folder == "" {
		return id
	}
	return b.folder + "/" + id
}

// Put uploads the image to Cloudinary
func (b *Backend) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (*linkbio.MediaObject, error) {
	result, err := b.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		PublicID:     b.PublicID(key),
		ResourceType: "image",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}

	return &linkbio.MediaObject{
		Key:         result.PublicID,
		URL:         result.SecureURL,
		ContentType: contentType,
		Size:        int64(result.Bytes),
	}, nil
}

// Delete destroys the asset with the given public ID
func (b *Backend) Delete(ctx context.Context, key string) error {
	result, err := b.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: key})
	if err != nil {
		return fmt.Errorf("failed to delete from cloudinary: %w", err)
	}
	if result.Result == "not found" {
		return linkbio.ErrMediaNotFound
	}
	return nil
}
