package tasks

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/avolkov/keepsake/internal/entities"
	"github.com/avolkov/keepsake/internal/importers"
)

// ImportArchiveTask imports one archive file from disk in the background.
// Used by the archive directory scanner and for large files where a
// synchronous HTTP import would tie up the request.
type ImportArchiveTask struct {
	Path   string `json:"path"`
	Source string `json:"source"`
}

// Config returns the queue configuration for archive import tasks.
func (t ImportArchiveTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_archive",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     15 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportRunRecorder persists the audit trail of finished imports.
type ImportRunRecorder interface {
	SaveImportRun(run *entities.ImportRun) error
}

// ImportArchiveProcessor creates a processor function for
// ImportArchiveTask. Options are resolved per task so each source gets
// the owner identity it was configured with (nil resolver means default
// options). Diff-aware imports keep the task retryable: a retry after a
// partial failure only adds what the first attempt missed.
func ImportArchiveProcessor(importer *importers.Importer, recorder ImportRunRecorder, resolve importers.OptionsResolver) backlite.QueueProcessor[ImportArchiveTask] {
	return func(ctx context.Context, task ImportArchiveTask) error {
		source, err := entities.ParseSourceType(task.Source)
		if err != nil {
			return fmt.Errorf("import task for %s: %w", task.Path, err)
		}

		raw, err := os.ReadFile(task.Path)
		if err != nil {
			return fmt.Errorf("reading archive %s: %w", task.Path, err)
		}

		opts := importers.Options{}
		if resolve != nil {
			opts = resolve(source)
		}

		startedAt := time.Now().UTC()
		result, importErr := importer.ImportDiff(ctx, source, raw, opts)

		if recorder != nil {
			run := &entities.ImportRun{
				SourceType: source,
				FileName:   task.Path,
				Success:    importErr == nil,
				Accepted:   result.Accepted,
				Skipped:    result.Skipped,
				Degraded:   result.Degraded,
				Failed:     result.Failed,
				Message:    result.Message,
				StartedAt:  startedAt,
				FinishedAt: time.Now().UTC(),
			}
			if err := recorder.SaveImportRun(run); err != nil {
				log.Printf("[TASK] failed to record import run for %s: %v", task.Path, err)
			}
		}

		if importErr != nil {
			return fmt.Errorf("importing %s: %w", task.Path, importErr)
		}

		log.Printf("[TASK] Imported %s: %s", task.Path, result.Message)
		return nil
	}
}

// NewImportArchiveQueue creates a backlite queue for archive import tasks.
func NewImportArchiveQueue(importer *importers.Importer, recorder ImportRunRecorder, resolve importers.OptionsResolver) backlite.Queue {
	return backlite.NewQueue(ImportArchiveProcessor(importer, recorder, resolve))
}
