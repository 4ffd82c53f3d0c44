// Package memory keeps uploaded documents in process memory.
package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"sync"

	"invoicedash/internal/domain"
	"invoicedash/internal/port"
)

type object struct {
	data        []byte
	contentType string
}

// Storage is an in-memory port.ObjectStorage for local runs and tests.
type Storage struct {
	bucket string

	mu      sync.RWMutex
	objects map[string]object
}

var _ port.ObjectStorage = (*Storage)(nil)

// New creates an empty Storage. bucket only shows up in generated URLs.
func New(bucket string) *Storage {
	return &Storage{bucket: bucket, objects: make(map[string]object)}
}

func (s *Storage) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, fmt.Errorf("memory upload %s: %w", input.Key, err)
	}
	sum := md5.Sum(data)

	s.mu.Lock()
	s.objects[input.Key] = object{data: data, contentType: input.ContentType}
	s.mu.Unlock()

	return &port.UploadOutput{
		Location: s.location(input.Key),
		ETag:     `"` + hex.EncodeToString(sum[:]) + `"`,
	}, nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// GetPresignedURL returns a stable memory:// URL; expiry is ignored.
func (s *Storage) GetPresignedURL(_ context.Context, key string, _ int64) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("memory object %s: %w", key, domain.ErrNotFound)
	}
	return s.location(key), nil
}

// Open returns a reader over a stored object and its content type.
func (s *Storage) Open(key string) (io.Reader, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("memory object %s: %w", key, domain.ErrNotFound)
	}
	return bytes.NewReader(obj.data), obj.contentType, nil
}

// Len reports how many objects are stored.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *Storage) location(key string) string {
	return (&url.URL{Scheme: "memory", Host: s.bucket, Path: "/" + key}).String()
}
