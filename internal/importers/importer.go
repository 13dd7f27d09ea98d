package importers

import (
	"context"
	"fmt"

	"github.com/avolkov/keepsake/internal/entities"
)

// ImportResult is the summary returned to the caller once an import
// finishes, successfully or not.
type ImportResult struct {
	Success    bool                `json:"success"`
	SourceType entities.SourceType `json:"source_type"`
	Accepted   int                 `json:"accepted"`
	Skipped    int                 `json:"skipped"`
	Degraded   int                 `json:"degraded"`
	Failed     int                 `json:"failed"`
	Posts      []entities.Post     `json:"-"`
	Message    string              `json:"message"`
}

// Importer orchestrates a full archive import: adapter resolution,
// decode, then the batched normalize/dedup/persist pipeline.
type Importer struct {
	registry *Registry
	store    Store
}

func NewImporter(registry *Registry, store Store) *Importer {
	return &Importer{registry: registry, store: store}
}

// Import runs a fresh import: duplicates are only detected within the
// archive itself, not against previously stored posts.
func (im *Importer) Import(ctx context.Context, source entities.SourceType, raw []byte, opts Options) (ImportResult, error) {
	return im.run(ctx, source, raw, opts, nil)
}

// ImportDiff runs a diff-aware import: the duplicate key set is seeded
// from the store first, so re-importing an archive only adds posts not
// seen before.
func (im *Importer) ImportDiff(ctx context.Context, source entities.SourceType, raw []byte, opts Options) (ImportResult, error) {
	if im.store == nil {
		return im.run(ctx, source, raw, opts, nil)
	}
	existing, err := im.store.ExistingKeys(source)
	if err != nil {
		return ImportResult{SourceType: source}, fmt.Errorf("loading existing keys: %w", err)
	}
	return im.run(ctx, source, raw, opts, existing)
}

func (im *Importer) run(ctx context.Context, source entities.SourceType, raw []byte, opts Options, existing map[string]struct{}) (ImportResult, error) {
	result := ImportResult{SourceType: source}

	emit := func(p Progress) {
		if opts.OnProgress != nil {
			opts.OnProgress(p)
		}
	}
	emit(Progress{Step: "initializing", Percent: 0, Message: fmt.Sprintf("starting %s import", source)})

	adapter, err := im.registry.Get(source)
	if err != nil {
		result.Message = err.Error()
		return result, err
	}

	natives, dropped, err := adapter.Decode(raw, opts)
	if err != nil {
		result.Message = err.Error()
		return result, err
	}
	emit(Progress{Step: "parsing", Percent: 0, Message: fmt.Sprintf("decoded %d records", len(natives)), Total: len(natives)})

	processor := newBatchProcessor(adapter, im.store, opts, existing)
	summary, err := processor.run(ctx, natives)

	result.Accepted = len(summary.Accepted)
	result.Skipped = summary.Skipped
	result.Degraded = summary.Degraded
	// Records the decoder had to discard count as failed too, so an
	// archive that decodes to nothing never reports a clean zero.
	result.Failed = summary.Failed + dropped
	result.Posts = summary.Accepted

	if err != nil {
		result.Message = fmt.Sprintf("%s import aborted: %v", source, err)
		return result, err
	}

	result.Success = true
	result.Message = summarize(source, result)
	emit(Progress{
		Step:      "complete",
		Percent:   100,
		Message:   result.Message,
		Processed: len(natives),
		Total:     len(natives),
	})
	return result, nil
}

func summarize(source entities.SourceType, r ImportResult) string {
	msg := fmt.Sprintf("imported %d %s posts", r.Accepted, source)
	if r.Skipped > 0 {
		msg += fmt.Sprintf(", skipped %d duplicates", r.Skipped)
	}
	if r.Degraded > 0 {
		msg += fmt.Sprintf(", %d degraded", r.Degraded)
	}
	if r.Failed > 0 {
		msg += fmt.Sprintf(", %d dropped", r.Failed)
	}
	return msg
}
