package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/keepsake/internal/config"
	"github.com/avolkov/keepsake/internal/database"
	"github.com/avolkov/keepsake/internal/database/posts"
	"github.com/avolkov/keepsake/internal/entities"
	http_controllers "github.com/avolkov/keepsake/internal/http"
	"github.com/avolkov/keepsake/internal/importers"
	"github.com/avolkov/keepsake/internal/scheduler"
	"github.com/avolkov/keepsake/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Keepsake v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	repo := posts.NewRepository(db.DB)
	registry := importers.NewRegistry()
	importer := importers.NewImporter(registry, repo)

	baseOpts := importers.Options{
		BatchSize: cfg.Import.BatchSize,
	}
	if cfg.Import.MemoryLimitMB > 0 {
		baseOpts.Pressure = importers.RuntimePressure(uint64(cfg.Import.MemoryLimitMB) * 1024 * 1024)
	}

	// Archives do not reliably embed the owning account, so the
	// configured identity is attached per source at import time.
	optsFor := func(source entities.SourceType) importers.Options {
		opts := baseOpts
		opts.OwnerHandle = cfg.HandleFor(string(source))
		if source == entities.SourceBluesky {
			opts.OwnerDID = cfg.Import.BlueskyDID
		}
		return opts
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewImportArchiveQueue(importer, repo, optsFor),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Start the archive drop-directory scanner if enabled. It needs the
	// task queue to hand work to.
	var scanScheduler *scheduler.ArchiveScanScheduler
	if cfg.Scan.Enabled {
		if taskClient == nil {
			log.Printf("WARNING: archive scan requires the task queue; set TASKS_ENABLED=true. Scanner disabled.")
		} else {
			scanScheduler = scheduler.NewArchiveScanScheduler(cfg.Scan.Dir, cfg.Scan.Schedule, taskClient)
			if err := scanScheduler.Start(context.Background()); err != nil {
				log.Fatalf("Failed to start archive scan scheduler: %v", err)
			}
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Database:   db,
		Version:    version,
		Importer:   importer,
		ImportOpts: optsFor,
		Sources:    entities.SupportedSources,
		PostReader: repo,
		Counter:    repo,
		Recorder:   repo,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if scanScheduler != nil {
			scanScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
