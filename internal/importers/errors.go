package importers

import (
	"errors"
	"fmt"

	"github.com/avolkov/keepsake/internal/entities"
)

// ErrUnsupportedSource indicates no adapter is registered for the
// requested source type. Raised before any decode work begins.
var ErrUnsupportedSource = errors.New("unsupported import source")

// FormatError indicates the archive's container-level structure was not
// recognized. Fatal: the whole import aborts with nothing persisted.
type FormatError struct {
	Source entities.SourceType
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unrecognized %s archive: %v", e.Source, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ResourceExhaustedError aborts an import mid-run when the host reports
// critical memory pressure. Batches persisted before the abort remain
// persisted.
type ResourceExhaustedError struct {
	Processed int
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("import aborted after %d records: critical memory pressure", e.Processed)
}
