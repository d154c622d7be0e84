package storage

import (
	"context"
	"fmt"
)

// ObjectStorage is the durable byte store behind the asset index. Index
// metadata (owner, content type, expiry) lives in the database; only raw
// bytes live here.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
}

// Key helpers. The namespace is hierarchical by event/artifact-kind so
// concurrent events can never collide.

func PhotoKey(eventID uint, assetID, kind string) string {
	return fmt.Sprintf("events/%d/photos/%s/%s", eventID, assetID, kind)
}

func BackgroundKey(eventID uint, name string) string {
	return fmt.Sprintf("events/%d/backgrounds/%s", eventID, name)
}

func DefaultBackgroundKey(name string) string {
	return fmt.Sprintf("backgrounds/%s", name)
}

func ProductionKey(token, filename string) string {
	return fmt.Sprintf("productions/%s/%s", token, filename)
}
