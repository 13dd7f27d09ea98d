// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help readers
// understand extension points and how to implement new functionality.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - importers.Store: key lookup and batch persistence for the import engine
//   - http.PostReader: read-only access to stored posts (internal/http/posts.go)
//   - http.SourceCounter: per-source statistics (internal/http/sources.go)
//   - http.ImportRunRecorder: import audit trail (internal/http/import.go)
//
// ## Import Pipeline Interfaces
//
//   - importers.Adapter: decoder + normalizer pair for one archive format
//   - http.ArchiveImporter: the slice of the engine the HTTP layer uses
//
// # Adding a New Database Domain
//
// To add a new data domain (e.g., analytics):
//
//  1. Create sub-package: internal/database/analytics/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Implement interface methods
//
//  4. Add compile-time check:
//
//     var _ AnalyticsStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
