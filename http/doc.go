// Package http exposes the gallery REST API: health check, batch JPEG
// upload, full listing with refreshed signed URLs, and per-image delete,
// plus SigV4-verified blob serving for the filesystem backend. Routing is
// chi with fully open CORS by default; upload, list and delete sit behind
// a shared bearer token.
package http
