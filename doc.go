// Package gallerd implements a personal photo-gallery service: JPEG images
// are uploaded as base64 data URLs, stored in a blob store under
// <monthYear>/<id> paths, and tracked in a prefix-scannable key-value
// metadata store. Clients fetch the full list, group it by calendar month,
// and retrieve image bytes through time-limited signed URLs.
//
// # Key Components
//
//   - Service: gallery operations (upload, list, delete) over a
//     MetadataRepo and a BlobStore
//   - MetadataRepo: key-value persistence for ImageRecord entries
//     (redis, sqlite, postgres backends under database/)
//   - BlobStore: raw image bytes plus presigned retrieval URLs
//     (filesystem and s3 backends)
//   - Signer / Verifier: SigV4 presigning and verification for the
//     filesystem backend's locally served blob URLs
//
// The http package exposes the REST API, the client package implements the
// gallery view model (month grouping, login state), and cmd/ holds the
// server and client CLIs.
package gallerd
