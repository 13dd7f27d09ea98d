package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/keepsake/internal/entities"
	"github.com/avolkov/keepsake/internal/importers"
)

const (
	maxArchiveFileSize = 512 * 1024 * 1024 // 512 MB; repository archives get large
)

// ArchiveImporter is the slice of the import engine the controller needs.
type ArchiveImporter interface {
	ImportDiff(ctx context.Context, source entities.SourceType, raw []byte, opts importers.Options) (importers.ImportResult, error)
}

// ImportRunRecorder persists the audit trail of finished imports.
type ImportRunRecorder interface {
	SaveImportRun(run *entities.ImportRun) error
}

type ImportController struct {
	importer ArchiveImporter
	recorder ImportRunRecorder
	opts     importers.OptionsResolver
}

// NewImportController builds the upload controller. opts is resolved per
// request so each source gets the owner identity it was configured with;
// nil means default options for every source.
func NewImportController(importer ArchiveImporter, recorder ImportRunRecorder, opts importers.OptionsResolver) *ImportController {
	return &ImportController{
		importer: importer,
		recorder: recorder,
		opts:     opts,
	}
}

type ImportResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Source   string `json:"source"`
	Accepted int    `json:"accepted"`
	Skipped  int    `json:"skipped"`
	Degraded int    `json:"degraded"`
	Failed   int    `json:"failed"`
	Message  string `json:"message,omitempty"`
}

// Import handles POST /api/import/:source with a multipart "archive" file.
func (c *ImportController) Import(ctx *gin.Context) {
	source, err := entities.ParseSourceType(ctx.Param("source"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, &ImportResponse{
			Success: false,
			Error:   err.Error(),
			Source:  ctx.Param("source"),
		})
		return
	}

	file, header, err := ctx.Request.FormFile("archive")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, &ImportResponse{
			Success: false,
			Error:   "Archive file not provided",
			Source:  string(source),
		})
		return
	}
	defer file.Close()

	if header.Size > maxArchiveFileSize {
		ctx.JSON(http.StatusBadRequest, &ImportResponse{
			Success: false,
			Error:   fmt.Sprintf("File too large (max %d MB)", maxArchiveFileSize/(1024*1024)),
			Source:  string(source),
		})
		return
	}

	raw, err := io.ReadAll(io.LimitReader(file, maxArchiveFileSize+1))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, &ImportResponse{
			Success: false,
			Error:   fmt.Sprintf("Failed to read archive: %v", err),
			Source:  string(source),
		})
		return
	}

	opts := importers.Options{}
	if c.opts != nil {
		opts = c.opts(source)
	}

	startedAt := time.Now().UTC()
	result, importErr := c.importer.ImportDiff(ctx.Request.Context(), source, raw, opts)

	if c.recorder != nil {
		run := &entities.ImportRun{
			SourceType: source,
			FileName:   header.Filename,
			Success:    importErr == nil,
			Accepted:   result.Accepted,
			Skipped:    result.Skipped,
			Degraded:   result.Degraded,
			Failed:     result.Failed,
			Message:    result.Message,
			StartedAt:  startedAt,
			FinishedAt: time.Now().UTC(),
		}
		// A broken audit row must not change the import response.
		if err := c.recorder.SaveImportRun(run); err != nil {
			log.Printf("failed to record import run: %v", err)
		}
	}

	if importErr != nil {
		ctx.JSON(importStatusCode(importErr), &ImportResponse{
			Success:  false,
			Error:    importErr.Error(),
			Source:   string(source),
			Accepted: result.Accepted,
			Skipped:  result.Skipped,
			Degraded: result.Degraded,
			Failed:   result.Failed,
		})
		return
	}

	ctx.JSON(http.StatusOK, &ImportResponse{
		Success:  true,
		Source:   string(source),
		Accepted: result.Accepted,
		Skipped:  result.Skipped,
		Degraded: result.Degraded,
		Failed:   result.Failed,
		Message:  result.Message,
	})
}

func importStatusCode(err error) int {
	var formatErr *importers.FormatError
	var exhausted *importers.ResourceExhaustedError
	switch {
	case errors.Is(err, importers.ErrUnsupportedSource):
		return http.StatusBadRequest
	case errors.As(err, &formatErr):
		return http.StatusBadRequest
	case errors.As(err, &exhausted):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}
