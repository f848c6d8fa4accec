// Package filesystem provides a local blob store for gallerd. Writes are
// atomic (temp file plus rename) and sandboxed under an os.Root; retrieval
// URLs are SigV4-presigned links under the server's own /blob route.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"gallerd"
)

// BlobRoutePrefix is the path under the server's public URL where signed
// blob requests are served. The http package mounts the matching route.
const BlobRoutePrefix = "/blob"

// Store provides file system blob storage with locally signed URLs.
type Store struct {
	root      *os.Root
	signer    *gallerd.Signer
	publicURL string
}

// New creates a Store rooted at root. publicURL is the externally
// reachable base URL of the gallery server; presigned links are issued
// beneath it. The root sandboxes all file operations, preventing path
// traversal.
func New(root *os.Root, signer *gallerd.Signer, publicURL string) *Store {
	return &Store{root: root, signer: signer, publicURL: publicURL}
}

// Open opens a blob for reading. Returns gallerd.ErrNotFound if it does
// not exist. The caller closes the returned reader.
func (s *Store) Open(ctx context.Context, path string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, gallerd.ErrNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes content to the given path using a temp file and
// rename, creating the month directory as needed. The operation respects
// context cancellation.
func (s *Store) Put(ctx context.Context, path string, content io.Reader, size int64) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if !gallerd.IsValidBlobPath(path) {
		return fmt.Errorf("put blob %s: %w", path, gallerd.ErrInvalidInput)
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return fmt.Errorf("put blob: could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(t.Name()); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	written, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return fmt.Errorf("put blob: could not copy contents: %w", err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("put blob: wrote %d bytes, expected %d", written, size)
	}

	if err := t.Sync(); err != nil {
		return fmt.Errorf("put blob: could not sync written file: %w", err)
	}

	destDir := filepath.Dir(path)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("put blob: could not create intermediate directories: %w", err)
		}
	}

	if renameErr := s.root.Rename(tmpFile, path); renameErr != nil {
		return fmt.Errorf("put blob: failed to rename file: %w", renameErr)
	}

	success = true
	slog.Debug("stored blob", "path", path, "bytes", written, "etag", hex.EncodeToString(h.Sum(nil)))

	return nil
}

// Remove deletes a blob. Returns gallerd.ErrNotFound if it does not exist.
func (s *Store) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.root.Remove(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return gallerd.ErrNotFound
		}
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

// PresignGet returns a signed URL for the blob at path under the server's
// /blob route. expiry is clamped to the SigV4 ceiling of 7 days; gallery
// list reads re-issue URLs on every read, so the clamp never strands a
// client with a dead link.
func (s *Store) PresignGet(ctx context.Context, path string, expiry time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	expires := int(expiry / time.Second)
	return s.signer.Presign(s.publicURL, http.MethodGet, BlobRoutePrefix+"/"+path, expires, time.Now())
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
