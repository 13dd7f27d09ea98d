package importers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/avolkov/keepsake/internal/entities"
)

// DupKey derives the duplicate-detection identity of a post. The same
// logical post always yields the same key, independent of which import
// run (or process) produced it.
//
// Strategy per source: the platform's own stable identifier is
// preferred. Block-graph posts use their content hash directly, since
// that is the platform-native identity of the block. The two twitter
// archive flavors share one key space so the same tweet imported from
// tweets.js and from a backup CSV is recognized as one post.
func DupKey(p *entities.Post) string {
	switch p.SourceType {
	case entities.SourceBluesky:
		if cid := p.SourceMeta["cid"]; cid != "" {
			return "bluesky:" + cid
		}
	case entities.SourceTwitter, entities.SourceTwitterCSV:
		if p.SourceID != "" {
			return "twitter:" + p.SourceID
		}
	}
	if p.SourceID != "" {
		return fmt.Sprintf("%s:%s", p.SourceType, p.SourceID)
	}
	return contentKey(p.Content, p.CreatedAt)
}

// contentKey is the last-resort identity for records with no native
// identifier at all. Two genuinely distinct posts with identical text
// and second-resolution timestamp collide here; that approximation is
// accepted for records that are already degraded.
func contentKey(content string, createdAt time.Time) string {
	h := sha256.Sum256([]byte(content + "\x00" + createdAt.UTC().Format(time.RFC3339)))
	return "content:" + hex.EncodeToString(h[:16])
}
