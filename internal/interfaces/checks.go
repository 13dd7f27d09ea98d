package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/avolkov/keepsake/internal/database/posts"
	"github.com/avolkov/keepsake/internal/http"
	"github.com/avolkov/keepsake/internal/importers"
	"github.com/avolkov/keepsake/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Store implementations
var _ importers.Store = (*posts.Repository)(nil)

// HTTP controller collaborators
var _ http.PostReader = (*posts.Repository)(nil)
var _ http.SourceCounter = (*posts.Repository)(nil)
var _ http.ImportRunRecorder = (*posts.Repository)(nil)

// =============================================================================
// Import Pipeline
// =============================================================================

var _ http.ArchiveImporter = (*importers.Importer)(nil)
var _ tasks.ImportRunRecorder = (*posts.Repository)(nil)
