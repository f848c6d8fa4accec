package gallerd

import (
	"errors"
	"fmt"
	"regexp"
)

// KeyPrefix is the metadata-store key prefix for image records. The full
// key for a record is Key(record.ID).
const KeyPrefix = "image:"

// Key returns the metadata-store key for an image id.
func Key(id string) string {
	return KeyPrefix + id
}

// ImageRecord is the metadata stored for one uploaded image.
//
// ID doubles as the blob filename; FilePath is <monthYear>/<id>. Date is the
// RFC 3339 capture timestamp and MonthYear its YYYY-MM grouping key, derived
// once at upload and never recomputed. URL is the last-issued signed
// retrieval URL; list reads refresh it in the response without persisting.
type ImageRecord struct {
	ID        string `json:"id"`
	FilePath  string `json:"filePath"`
	URL       string `json:"url"`
	Date      string `json:"date"`
	MonthYear string `json:"monthYear"`
}

// UploadEntry is one element of an upload batch: a base64 data-URL-encoded
// JPEG plus its capture timestamp. MonthYear is optional; when present it
// must agree with Date.
type UploadEntry struct {
	Base64    string `json:"base64"`
	Date      string `json:"date"`
	MonthYear string `json:"monthYear"`
}

// SkippedEntry reports one upload-batch entry that was not stored and why.
type SkippedEntry struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// UploadResult is the outcome of an upload batch: the records that were
// persisted and the entries that were skipped.
type UploadResult struct {
	Images  []ImageRecord  `json:"images"`
	Skipped []SkippedEntry `json:"skipped,omitempty"`
}

// Tables holds configurable table names for the SQL metadata backends.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	KV string `mapstructure:"kv"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.KV == "" {
		return errors.New("validate tables: kv table name cannot be empty")
	}

	if !IsValidTableName(t.KV) {
		return fmt.Errorf("validate tables: invalid kv table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.KV)
	}

	return nil
}
