package importers

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/avolkov/keepsake/internal/entities"
	"github.com/avolkov/keepsake/internal/twitter"
)

// twitterCSVAdapter imports third-party backup CSV exports.
type twitterCSVAdapter struct{}

func (twitterCSVAdapter) Type() entities.SourceType {
	return entities.SourceTwitterCSV
}

func (a twitterCSVAdapter) Decode(raw []byte, opts Options) ([]any, int, error) {
	rows, rowErrors, err := twitter.ParseCSV(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, &FormatError{Source: a.Type(), Err: err}
	}
	for _, rowError := range rowErrors {
		log.Printf("twitter csv: %s", rowError)
	}

	natives := make([]any, len(rows))
	for i, row := range rows {
		natives[i] = row
	}
	return natives, len(rowErrors), nil
}

func (a twitterCSVAdapter) Normalize(native any, opts Options) Result {
	row, ok := native.(twitter.CSVRow)
	if !ok {
		return degradedPost(a.Type(), "", native, "unexpected native record type")
	}

	post := entities.Post{
		SourceID:     row.ID,
		SourceType:   a.Type(),
		Content:      SanitizeContent(row.Text),
		Likes:        row.Likes,
		Shares:       row.Retweets,
		Replies:      row.Replies,
		CanonicalURL: CleanURL(row.Link),
		SourceMeta:   map[string]string{},
	}

	// The link embeds its author. When it diverges from the account the
	// archive belongs to, the row is a re-share of someone else's post.
	linkAuthor := twitter.ScreenNameFromLink(post.CanonicalURL)
	post.AuthorHandle = linkAuthor
	if post.AuthorHandle == "" {
		post.AuthorHandle = opts.OwnerHandle
	}
	if opts.OwnerHandle != "" && linkAuthor != "" && !strings.EqualFold(linkAuthor, opts.OwnerHandle) {
		post.IsRepost = true
		post.SourceMeta["reposted_by"] = opts.OwnerHandle
	}
	if strings.HasPrefix(post.Content, "RT @") {
		post.IsRepost = true
	}

	degradedReason := ""
	if created, err := parseRecordTime(row.CreatedAt); err == nil {
		post.CreatedAt = created
	} else if created, err := twitter.ParseCreatedAt(row.CreatedAt); err == nil {
		post.CreatedAt = created
	} else {
		post.CreatedAt = nowUTC()
		degradedReason = fmt.Sprintf("unparseable timestamp %q", row.CreatedAt)
	}

	// Backup CSVs carry no structured entities; extraction is always the
	// regex fallback.
	post.Hashtags = ExtractHashtags(post.Content)
	post.Mentions = ExtractMentions(post.Content)
	for _, u := range ExtractURLs(post.Content) {
		post.URLs = append(post.URLs, entities.URLItem{URL: CleanURL(u)})
	}

	finishPost(&post)
	return Result{Post: post, Degraded: degradedReason != "", Reason: degradedReason}
}
