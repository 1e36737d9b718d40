package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/simple-linkbio/pkg/linkbio"
)

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // URL prefix the API serves files under (default: /media)
}

// Backend is a filesystem implementation of linkbio.MediaStore
type Backend struct {
	baseDir   string
	urlPrefix string
}

// New creates a new filesystem media store
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	prefix := config.URLPrefix
	if prefix == "" {
		prefix = "/media"
	}
	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: strings.TrimSuffix(prefix, "/"),
	}, nil
}

// path resolves key inside baseDir and rejects traversal.
func (b *Backend) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	return filepath.Join(b.baseDir, filepath.FromSlash(clean)), nil
}

// Put writes the object to disk
func (b *Backend) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (*linkbio.MediaObject, error) {
	filePath, err := b.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, body)
	if err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &linkbio.MediaObject{
		Key:         key,
		URL:         fmt.Sprintf("%s/%s", b.urlPrefix, key),
		ContentType: contentType,
		Size:        written,
	}, nil
}

// Open opens the stored file; the content type is derived from its extension
func (b *Backend) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	filePath, err := b.path(key)
	if err != nil {
		return nil, "", err
	}
	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, "", linkbio.ErrMediaNotFound
	} else if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return file, contentType, nil
}

// Delete removes the file and any directories left empty
func (b *Backend) Delete(ctx context.Context, key string) error {
	filePath, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return linkbio.ErrMediaNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	b.cleanupEmptyDirectories(filepath.Dir(filePath))
	return nil
}

func (b *Backend) cleanupEmptyDirectories(dir string) {
	if dir == filepath.Clean(b.baseDir) {
		return
	}
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
