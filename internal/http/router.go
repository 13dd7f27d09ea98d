package http

import (
	"github.com/gin-gonic/gin"

	"github.com/avolkov/keepsake/internal/database"
	"github.com/avolkov/keepsake/internal/entities"
	"github.com/avolkov/keepsake/internal/importers"
)

// RouterConfig receives all router dependencies, improving testability
// and reducing parameter count.
type RouterConfig struct {
	Database *database.Database
	Version  string

	Importer   ArchiveImporter
	ImportOpts importers.OptionsResolver
	Sources    []entities.SourceType

	PostReader PostReader
	Counter    SourceCounter
	Recorder   ImportRunRecorder
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	importController := NewImportController(cfg.Importer, cfg.Recorder, cfg.ImportOpts)
	sourcesController := NewSourcesController(cfg.Sources, cfg.Counter)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Import endpoints
	router.POST("/api/import/:source", importController.Import)

	// Archive read endpoints
	router.GET("/api/sources", sourcesController.List)
	if cfg.PostReader != nil {
		postsController := NewPostsController(cfg.PostReader)
		router.GET("/api/posts/:source", postsController.BySource)
		router.GET("/api/periods/:period", postsController.ByPeriod)
		router.GET("/api/import/runs", postsController.ImportRuns)
	}

	return router
}
