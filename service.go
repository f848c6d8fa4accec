package gallerd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultURLTTL is the validity requested for signed retrieval URLs.
// Backends clamp it to their signing scheme's maximum; list reads re-issue
// fresh URLs every time, so clients always hold a live link.
const DefaultURLTTL = 365 * 24 * time.Hour

// Service implements the gallery operations over a metadata repo and a
// blob store. Each request is stateless and independent; any concurrency
// safety comes from the backing stores' per-key guarantees.
type Service struct {
	repo           MetadataRepo
	blobs          BlobStore
	urlTTL         time.Duration
	cleanupTimeout time.Duration
	now            func() time.Time
}

// ServiceConfig holds configuration options for Service.
type ServiceConfig struct {
	URLTTL         time.Duration // signed URL validity (default: DefaultURLTTL)
	CleanupTimeout time.Duration // timeout for orphan-blob cleanup (default: 30s)
}

func NewService(repo MetadataRepo, blobs BlobStore, cfg ServiceConfig) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("new service: metadata repo is required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("new service: blob store is required")
	}
	urlTTL := cfg.URLTTL
	if urlTTL <= 0 {
		urlTTL = DefaultURLTTL
	}
	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}
	return &Service{
		repo:           repo,
		blobs:          blobs,
		urlTTL:         urlTTL,
		cleanupTimeout: cleanupTimeout,
		now:            time.Now,
	}, nil
}

// Upload stores a batch of data-URL-encoded JPEG entries.
//
// For each entry it decodes the payload, synthesizes an id, writes the bytes
// to the blob store at <monthYear>/<id>, presigns a retrieval URL, and
// persists the ImageRecord. Entries that fail validation (undecodable
// payload, non-JPEG content, unparseable date, or a monthYear that
// contradicts the date) are skipped and reported in the result rather than
// aborting the batch.
//
// Storage failures abort the batch with an error; entries already persisted
// stay persisted (no rollback). When the metadata write for an entry fails
// its just-written blob is removed, using a background context so cleanup
// survives cancellation of the request.
func (s *Service) Upload(ctx context.Context, entries []UploadEntry) (UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	result := UploadResult{Images: []ImageRecord{}}

	for i, entry := range entries {
		data, err := DecodeJPEGDataURL(entry.Base64)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedEntry{Index: i, Reason: err.Error()})
			continue
		}

		date, err := time.Parse(time.RFC3339, entry.Date)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedEntry{
				Index:  i,
				Reason: fmt.Sprintf("invalid date %q: must be RFC 3339", entry.Date),
			})
			continue
		}

		// monthYear is derived from the date exactly once, here. A supplied
		// value that disagrees would let the grouping key drift from the
		// sort key, so it is rejected instead of silently trusted.
		monthYear := MonthKey(date)
		if entry.MonthYear != "" && entry.MonthYear != monthYear {
			result.Skipped = append(result.Skipped, SkippedEntry{
				Index:  i,
				Reason: fmt.Sprintf("monthYear %q does not match date %q", entry.MonthYear, entry.Date),
			})
			continue
		}

		id := NewImageID(s.now())
		filePath := monthYear + "/" + id

		if err := s.blobs.Put(ctx, filePath, bytes.NewReader(data), int64(len(data))); err != nil {
			return result, fmt.Errorf("upload %s: write blob: %w", filePath, err)
		}

		url, err := s.blobs.PresignGet(ctx, filePath, s.urlTTL)
		if err != nil {
			// Matching list behavior: a presign failure leaves the stored
			// URL empty and the next list read issues a fresh one.
			slog.Warn("presign after upload failed", "path", filePath, "err", err)
			url = ""
		}

		record := ImageRecord{
			ID:        id,
			FilePath:  filePath,
			URL:       url,
			Date:      entry.Date,
			MonthYear: monthYear,
		}

		if err := s.repo.Save(ctx, record); err != nil {
			// Use a background context for cleanup since the request
			// context may already be cancelled.
			cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
			defer cancel()

			if rmErr := s.blobs.Remove(cleanupCtx, filePath); rmErr != nil {
				return result, fmt.Errorf("upload %s: metadata save failed (%w) and blob cleanup failed: %w", filePath, err, rmErr)
			}
			return result, fmt.Errorf("upload %s: metadata save failed: %w", filePath, err)
		}

		result.Images = append(result.Images, record)
	}

	return result, nil
}

// List returns every image record with a freshly presigned retrieval URL.
// The refresh happens in the returned records only; the stored URL field is
// left untouched. Order is unspecified.
func (s *Service) List(ctx context.Context) ([]ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	for i := range records {
		url, presignErr := s.blobs.PresignGet(ctx, records[i].FilePath, s.urlTTL)
		if presignErr != nil {
			// Keep the stale stored URL rather than failing the whole list.
			slog.Warn("refresh signed url failed", "path", records[i].FilePath, "err", presignErr)
			continue
		}
		records[i].URL = url
	}

	return records, nil
}

// Delete removes an image's blob and then its metadata record.
//
// Returns ErrNotFound when no record exists for id. Either removal failing
// surfaces an error with no guarantee about the other half: a failed blob
// removal leaves the record in place, a failed metadata removal leaves an
// orphan-free blob gone but the record present. This drift is accepted and
// manually correctable; no reconciliation job exists.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}

	if id == "" {
		return fmt.Errorf("delete image: %w: id cannot be empty", ErrInvalidInput)
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete image %s: %w", id, err)
	}

	// A missing blob means a previous delete got halfway; removing the
	// metadata is still the right outcome.
	if err := s.blobs.Remove(ctx, record.FilePath); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete image %s: remove blob: %w", id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete image %s: remove metadata: %w", id, err)
	}

	return nil
}
