package importers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/avolkov/keepsake/internal/entities"
)

const (
	// DefaultBatchSize is the number of records pushed through
	// normalize/dedup/validate/persist at a time.
	DefaultBatchSize = 500

	// memoryCheckEvery is the processed-count threshold between memory
	// pressure queries.
	memoryCheckEvery = 1000

	// batchYield is the pause between batches that hands control back to
	// the host so it stays responsive during large imports.
	batchYield = time.Millisecond
)

// batchSummary accumulates the outcome of one processing run.
type batchSummary struct {
	Accepted []entities.Post
	Skipped  int
	Degraded int
	Failed   int
}

// batchProcessor drives decode results through
// normalize -> dedup -> validate -> persist in fixed-size batches.
//
// The existing-key set is owned exclusively by the processor for the
// duration of one run: it is seeded once before the first batch and
// mutated as records are accepted, so duplicates are caught both against
// prior imports and within the import itself.
type batchProcessor struct {
	adapter  Adapter
	store    Store
	opts     Options
	existing map[string]struct{}
}

func newBatchProcessor(adapter Adapter, store Store, opts Options, existing map[string]struct{}) *batchProcessor {
	if existing == nil {
		existing = make(map[string]struct{})
	}
	return &batchProcessor{
		adapter:  adapter,
		store:    store,
		opts:     opts,
		existing: existing,
	}
}

func (b *batchProcessor) batchSize() int {
	if b.opts.BatchSize > 0 {
		return b.opts.BatchSize
	}
	return DefaultBatchSize
}

// run processes every native record. On a fatal mid-run failure the
// summary accumulated so far is returned alongside the error: batches
// already handed to the store stay persisted.
func (b *batchProcessor) run(ctx context.Context, natives []any) (batchSummary, error) {
	summary := batchSummary{}
	total := len(natives)
	size := b.batchSize()

	processed := 0
	sinceCheck := 0

	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		batch := natives[start:end]

		accepted := make([]entities.Post, 0, len(batch))
		for _, native := range batch {
			result := safeNormalize(b.adapter, native, b.opts)
			if result.Degraded {
				summary.Degraded++
				log.Printf("degraded %s record %s: %s", result.Post.SourceType, result.Post.SourceID, result.Reason)
			}

			post := result.Post
			key := DupKey(&post)
			if _, duplicate := b.existing[key]; duplicate {
				summary.Skipped++
				continue
			}
			post.DupKey = key

			if err := post.Validate(); err != nil {
				summary.Failed++
				log.Printf("dropping invalid record: %v", err)
				continue
			}

			b.existing[key] = struct{}{}
			accepted = append(accepted, post)
		}

		if b.store != nil && len(accepted) > 0 {
			if err := b.store.SaveBatch(accepted); err != nil {
				return summary, fmt.Errorf("persisting batch: %w", err)
			}
		}
		summary.Accepted = append(summary.Accepted, accepted...)

		processed += len(batch)
		sinceCheck += len(batch)
		b.emit(Progress{
			Step:      "processing",
			Percent:   processed * 100 / total,
			Message:   fmt.Sprintf("processed %d of %d records", processed, total),
			Processed: processed,
			Total:     total,
		})

		if sinceCheck >= memoryCheckEvery && b.opts.Pressure != nil {
			sinceCheck = 0
			switch b.opts.Pressure() {
			case PressureCritical:
				return summary, &ResourceExhaustedError{Processed: processed}
			case PressureWarning:
				log.Printf("memory pressure warning after %d records", processed)
			}
		}

		// Cancellation is cooperative: the in-flight batch was completed
		// and persisted above, never abandoned halfway.
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("import cancelled: %w", err)
		}

		if end < total {
			time.Sleep(batchYield)
		}
	}

	return summary, nil
}

func (b *batchProcessor) emit(p Progress) {
	if b.opts.OnProgress != nil {
		b.opts.OnProgress(p)
	}
}
