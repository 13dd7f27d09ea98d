package importers

import (
	"github.com/avolkov/keepsake/internal/entities"
)

// Progress is emitted after initialization, after parsing and after each
// processed batch.
type Progress struct {
	Step      string `json:"step"` // "initializing", "parsing", "processing", "complete"
	Percent   int    `json:"progress"`
	Message   string `json:"message"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
}

// Options carries the per-import context supplied by the caller.
type Options struct {
	// Owner identity overrides. Some archive formats do not reliably
	// embed the owning account, so the caller may supply it.
	OwnerHandle string
	OwnerDID    string

	// BatchSize overrides DefaultBatchSize when positive.
	BatchSize int

	// Pressure is the host-supplied memory pressure signal. Nil means
	// the host reports no pressure.
	Pressure PressureFunc

	// OnProgress receives progress events. Nil disables emission.
	OnProgress func(Progress)
}

// OptionsResolver returns the Options to use for one source type.
// Hosts use it to attach the per-source owner identity they were
// configured with.
type OptionsResolver func(source entities.SourceType) Options

// Result is the outcome of normalizing one source-native record.
// Normalization never fails outright: a record the normalizer could not
// fully understand is still returned, flagged Degraded with a reason, so
// callers can audit lossy imports instead of silently accepting them.
type Result struct {
	Post     entities.Post
	Degraded bool
	Reason   string
}

// Adapter couples the decoder and the normalizer for one source type.
// The set of adapters is closed: each supported source type maps to
// exactly one implementation, registered in NewRegistry.
type Adapter interface {
	Type() entities.SourceType

	// Decode parses a raw archive into source-native records, preserving
	// the source's item order. dropped counts the records the decoder had
	// to discard (corrupt blocks, unrecognized items, unusable rows) so
	// they stay visible in the final import counts. Container-level
	// failures return a *FormatError.
	Decode(raw []byte, opts Options) (natives []any, dropped int, err error)

	// Normalize converts one source-native record into a unified Post.
	Normalize(native any, opts Options) Result
}

// Store is the storage collaborator the engine persists through. The
// engine needs nothing else from storage: key existence for dedup
// seeding and batch persistence.
type Store interface {
	// ExistingKeys returns the duplicate keys already stored for a
	// source type, used to seed the running key set before a diff-aware
	// import.
	ExistingKeys(source entities.SourceType) (map[string]struct{}, error)

	// SaveBatch persists one batch of validated posts in order.
	SaveBatch(posts []entities.Post) error
}
