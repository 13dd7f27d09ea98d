package entities

import (
	"fmt"
	"time"
)

// CurrentSchemaVersion is stamped onto every normalized post so future
// migrations can tell which shape a stored row has.
const CurrentSchemaVersion = 1

// SourceType identifies the originating platform/export format of a post.
type SourceType string

const (
	SourceBluesky    SourceType = "bluesky"     // CAR repository export
	SourceMastodon   SourceType = "mastodon"    // ActivityPub outbox.json
	SourceTwitter    SourceType = "twitter"     // official archive tweets.js
	SourceTwitterCSV SourceType = "twitter-csv" // third-party backup CSV
)

// SupportedSources lists every source type the import engine accepts.
var SupportedSources = []SourceType{
	SourceBluesky,
	SourceMastodon,
	SourceTwitter,
	SourceTwitterCSV,
}

// Valid reports whether s is one of the supported source types.
func (s SourceType) Valid() bool {
	for _, known := range SupportedSources {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSourceType converts a request/CLI string into a SourceType.
func ParseSourceType(raw string) (SourceType, error) {
	s := SourceType(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown source type: %q", raw)
	}
	return s, nil
}

// MediaItem is one attachment of a post, in source order.
type MediaItem struct {
	Type string `json:"type"` // "image", "video", "gifv", ...
	URL  string `json:"url,omitempty"`
	Alt  string `json:"alt,omitempty"`
}

// URLItem is one link of a post, in source order.
type URLItem struct {
	URL     string `json:"url"`
	Display string `json:"display,omitempty"`
}

// Post is the unified, source-independent representation of one
// social-media post. Every decoder/normalizer pair converges on this
// shape; it is the only record format the store ever sees.
type Post struct {
	// ID is derived purely from (SourceType, SourceID) and is stable
	// across repeated imports of the same underlying post.
	ID         string     `gorm:"primaryKey;size:512" json:"id"`
	SourceID   string     `gorm:"index;size:512" json:"source_id"`
	SourceType SourceType `gorm:"index;size:32" json:"source_type"`

	// DupKey is the duplicate-detection identity of the post. Unique in
	// storage so overlapping imports can never double-insert.
	DupKey string `gorm:"uniqueIndex;size:512" json:"dup_key"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	Content   string    `json:"content"` // may be empty for unresolved reposts

	AuthorName   string `gorm:"size:256" json:"author_name"`
	AuthorHandle string `gorm:"size:256" json:"author_handle"`
	AuthorAvatar string `gorm:"size:1024" json:"author_avatar,omitempty"`

	Likes   int  `json:"likes"`
	Shares  int  `json:"shares"`
	Replies int  `json:"replies"`
	Views   *int `json:"views,omitempty"` // absent for sources that don't export it

	Language string `gorm:"size:16" json:"language"`

	// PeriodKey is the YYYY-MM bucket of CreatedAt. Always recomputed
	// from CreatedAt, never trusted from input.
	PeriodKey string `gorm:"index;size:7" json:"period_key"`

	Media    []MediaItem `gorm:"serializer:json" json:"media,omitempty"`
	URLs     []URLItem   `gorm:"serializer:json" json:"urls,omitempty"`
	Hashtags []string    `gorm:"serializer:json" json:"hashtags,omitempty"`
	Mentions []string    `gorm:"serializer:json" json:"mentions,omitempty"`

	IsRepost bool `json:"is_repost"`

	// SourceMeta keeps platform peculiarities that have no unified slot:
	// instance domain, content identifier, reply/quote linkage, boost
	// attribution.
	SourceMeta map[string]string `gorm:"serializer:json" json:"source_meta,omitempty"`

	CanonicalURL string `gorm:"size:1024" json:"canonical_url,omitempty"`

	ImportedAt    time.Time `json:"imported_at"`
	SchemaVersion int       `json:"schema_version"`
}

// PostID derives the stable unified identifier for a post.
func PostID(source SourceType, sourceID string) string {
	return fmt.Sprintf("%s-%s", source, sourceID)
}

// PeriodKeyFor derives the year-month bucket used for period filtering.
func PeriodKeyFor(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// Validate checks the Post invariants. Records failing validation are
// dropped (and counted) by the batch processor before persistence.
func (p *Post) Validate() error {
	if !p.SourceType.Valid() {
		return fmt.Errorf("unsupported source type: %q", p.SourceType)
	}
	if p.SourceID == "" {
		return fmt.Errorf("post has no source identifier")
	}
	if p.ID != PostID(p.SourceType, p.SourceID) {
		return fmt.Errorf("post id %q is not derived from source %s/%s", p.ID, p.SourceType, p.SourceID)
	}
	if p.CreatedAt.IsZero() {
		return fmt.Errorf("post %s has no creation timestamp", p.ID)
	}
	if p.Likes < 0 || p.Shares < 0 || p.Replies < 0 {
		return fmt.Errorf("post %s has negative metrics", p.ID)
	}
	if p.Views != nil && *p.Views < 0 {
		return fmt.Errorf("post %s has a negative view count", p.ID)
	}
	if p.PeriodKey != PeriodKeyFor(p.CreatedAt) {
		return fmt.Errorf("post %s period key %q does not match created_at", p.ID, p.PeriodKey)
	}
	return nil
}
