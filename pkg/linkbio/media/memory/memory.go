package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tendant/simple-linkbio/pkg/linkbio"
)

type object struct {
	data        []byte
	contentType string
}

// Backend is an in-memory implementation of linkbio.MediaStore. Objects are
// served by the API under urlPrefix.
type Backend struct {
	mu        sync.RWMutex
	objects   map[string]object
	urlPrefix string
}

// New creates a new in-memory media store
func New(urlPrefix string) *Backend {
	return &Backend{
		objects:   make(map[string]object),
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
	}
}

// Put stores the object in memory
func (b *Backend) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (*linkbio.MediaObject, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	b.mu.Lock()
	b.objects[key] = object{data: data, contentType: contentType}
	b.mu.Unlock()

	return &linkbio.MediaObject{
		Key:         key,
		URL:         fmt.Sprintf("%s/%s", b.urlPrefix, key),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// Open returns the stored bytes and content type
func (b *Backend) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[key]
	if !exists {
		return nil, "", linkbio.ErrMediaNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

// Delete removes the object
func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[key]; !exists {
		return linkbio.ErrMediaNotFound
	}
	delete(b.objects, key)
	return nil
}
