// Package importers provides a unified pipeline for importing social
// media export archives from various platforms.
//
// # Architecture
//
// The import pipeline follows a simple flow:
//
//	Archive bytes → Adapter.Decode → native records → Adapter.Normalize
//	→ entities.Post → dedup/validate → Store batches
//
// Each supported platform implements the Adapter interface, coupling a
// format decoder with a normalizer onto the unified Post shape. The
// Importer resolves the adapter from the Registry, decodes the whole
// archive, then pushes the native records through the batch processor.
//
// # Adding a New Import Source
//
// To add support for a new archive format (e.g., a Tumblr export):
//
//  1. Add the source type constant to internal/entities.
//
//  2. Write the format decoder in its own package (see
//     internal/mastodon for a JSON-document example).
//
//  3. Implement the Adapter interface in a normalize_<source>.go file
//     and register it in NewRegistry. Normalize must never return an
//     error: records the normalizer cannot fully understand come back
//     flagged Degraded instead.
//
// # Existing Adapters
//
//   - blueskyAdapter: CAR repository exports
//   - mastodonAdapter: ActivityPub outbox documents
//   - twitterAdapter: official archive tweets.js files
//   - twitterCSVAdapter: third-party backup CSV files
package importers
