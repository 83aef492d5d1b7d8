// Package objectstore provides idempotent JSON document persistence on
// S3-compatible object storage. Documents are addressed by deterministic
// keys; writing an existing key overwrites it, which is the pipeline's
// idempotency strategy for at-least-once delivery.
package objectstore

import "context"

// DocumentStore is the capability the pipeline components depend on.
// Implemented by MinIOStore; substituted with fakes in tests.
type DocumentStore interface {
	// PutJSON marshals doc and writes it to bucket/key, overwriting any
	// existing object at that key.
	PutJSON(ctx context.Context, bucket, key string, doc any) error

	// GetJSON reads the object at bucket/key and unmarshals it into out.
	GetJSON(ctx context.Context, bucket, key string, out any) error

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error
}
