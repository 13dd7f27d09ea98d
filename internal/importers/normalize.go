package importers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/avolkov/keepsake/internal/entities"
)

// finishPost stamps the derived fields every normalizer shares. The
// unified id and the period key are always recomputed here; nothing
// upstream is trusted for them.
func finishPost(p *entities.Post) {
	p.ID = entities.PostID(p.SourceType, p.SourceID)
	p.PeriodKey = entities.PeriodKeyFor(p.CreatedAt)
	p.Language = NormalizeLanguage(p.Language)
	p.ImportedAt = time.Now().UTC()
	p.SchemaVersion = entities.CurrentSchemaVersion
}

// degradedPost builds the best-effort minimal record for a source-native
// item the normalizer could not fully understand. The id is derived from
// the native record's content so re-importing the same broken item does
// not multiply it.
func degradedPost(source entities.SourceType, sourceID string, native any, reason string) Result {
	if sourceID == "" {
		digest := sha256.Sum256([]byte(fmt.Sprintf("%v", native)))
		sourceID = "degraded-" + hex.EncodeToString(digest[:8])
	}

	post := entities.Post{
		SourceID:   sourceID,
		SourceType: source,
		CreatedAt:  time.Now().UTC(),
		Content:    "[post could not be read from the archive]",
	}
	finishPost(&post)

	return Result{Post: post, Degraded: true, Reason: reason}
}

// recordTimeFormats covers the timestamp shapes the JSON-based sources
// emit.
var recordTimeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseRecordTime(s string) (time.Time, error) {
	for _, format := range recordTimeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %q", s)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// safeNormalize shields the batch loop from a panicking normalizer: one
// malformed item must never abort a batch.
func safeNormalize(adapter Adapter, native any, opts Options) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = degradedPost(adapter.Type(), "", native, fmt.Sprintf("normalizer panic: %v", r))
		}
	}()
	return adapter.Normalize(native, opts)
}
