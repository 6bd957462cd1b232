package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// Store persists rendered reports.
type Store interface {
	// Write stores data under objectName and returns its URI.
	Write(ctx context.Context, objectName string, data []byte, contentType string) (string, error)

	// Fetch downloads the object at uri.
	Fetch(ctx context.Context, uri string) ([]byte, error)

	Close() error
}

// GCSStore writes reports to a Cloud Storage bucket.
// It assumes Application Default Credentials are configured (gcloud auth application-default login).
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a store for bucket with its own storage client.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSStore: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStore: create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Write uploads data to gs://<bucket>/<objectName>.
func (s *GCSStore) Write(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write GCS object %s: %w", objectName, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload %s: %w", objectName, err)
	}

	return URI(s.bucket, objectName), nil
}

// Fetch downloads the object bytes from the given GCS URI.
func (s *GCSStore) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}

	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object: %w", err)
	}
	return data, nil
}

// Close closes the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

var _ Store = (*GCSStore)(nil)
