// Package database wires the metadata backends. Connect dispatches on the
// configured type (redis, sqlite, or postgres) and hands back a ready
// gallerd.MetadataRepo: connections pinged, SQL schemas migrated and
// validated. All three backends store the same key-value shape — an image
// record JSON blob under the key image:<id> — so the gallery service is
// indifferent to which one is behind it.
package database
