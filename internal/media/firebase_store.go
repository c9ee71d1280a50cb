package media

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// FirebaseStore writes uploads to a Firebase Storage bucket.
type FirebaseStore struct {
	bucket     *storage.BucketHandle
	bucketName string
	prefix     string
}

func NewFirebaseStore(bucket *storage.BucketHandle, bucketName, prefix string) *FirebaseStore {
	return &FirebaseStore{bucket: bucket, bucketName: bucketName, prefix: prefix}
}

func (s *FirebaseStore) Save(ctx context.Context, data []byte, contentType string) (string, error) {
	name := s.prefix + objectName(data, contentType)
	w := s.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object %s: %w", name, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, name), nil
}
