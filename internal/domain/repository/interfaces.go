package repository

import (
	"context"
	"time"

	"SignalDash/internal/domain/models"
)

// ObjectStore reads whole objects from the storage bucket.
type ObjectStore interface {
	// Get returns the full contents of the object at key.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns the keys under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// PriceSource produces the reduced price snapshot.
type PriceSource interface {
	Load(ctx context.Context) (models.PriceSnapshot, error)
}

// SignalSource produces the reduced signal snapshot.
type SignalSource interface {
	Load(ctx context.Context) (models.SignalSnapshot, error)
}

// Metrics abstracts metric recording so loaders don't depend on Prometheus.
type Metrics interface {
	RecordFetch(source string, dur time.Duration)
	RecordFetchError(source, kind string)
	RecordRowsDropped(source, reason string, n int)
	RecordSnapshot(source string, rows int, age time.Duration)
	RecordCacheHit(loader string)
	RecordCacheMiss(loader string)
}
