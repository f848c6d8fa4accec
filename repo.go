package gallerd

import (
	"context"
	"io"
	"time"
)

// MetadataRepo defines the interface for image metadata persistence.
// Records live under Key(id) in a key-value store that supports scanning
// the KeyPrefix. Implementations provide per-key atomicity only; there are
// no cross-key transactions and callers tolerate blob/metadata drift.
//
// All methods accept a context for cancellation and timeout control.
type MetadataRepo interface {
	// Get retrieves the record stored under Key(id).
	// Returns ErrNotFound if no record exists.
	Get(ctx context.Context, id string) (ImageRecord, error)

	// Save stores the record under Key(record.ID), overwriting any
	// existing record with the same id.
	Save(ctx context.Context, record ImageRecord) error

	// Delete removes the record stored under Key(id).
	// Returns ErrNotFound if no record exists.
	Delete(ctx context.Context, id string) error

	// List returns every record stored under the KeyPrefix. Order is
	// unspecified; grouping and sorting are client concerns. An empty
	// store yields an empty slice, not nil.
	List(ctx context.Context) ([]ImageRecord, error)
}

// BlobStore defines the interface for raw image byte storage. Backends
// address blobs by the record's FilePath and issue time-limited signed
// retrieval URLs for them.
type BlobStore interface {
	// Put stores content at path, overwriting any existing blob. size is
	// the exact content length in bytes; implementations may use it to
	// avoid buffering.
	Put(ctx context.Context, path string, content io.Reader, size int64) error

	// Remove deletes the blob at path. Returns ErrNotFound if no blob
	// exists there.
	Remove(ctx context.Context, path string) error

	// PresignGet returns a signed retrieval URL for the blob at path,
	// valid for expiry. Implementations clamp expiry to their signing
	// scheme's maximum.
	PresignGet(ctx context.Context, path string, expiry time.Duration) (string, error)
}
