package importers

import (
	"fmt"
	"log"

	"github.com/avolkov/keepsake/internal/bluesky"
	"github.com/avolkov/keepsake/internal/entities"
)

// blueskyAdapter imports CAR repository archives.
type blueskyAdapter struct{}

func (blueskyAdapter) Type() entities.SourceType {
	return entities.SourceBluesky
}

func (a blueskyAdapter) Decode(raw []byte, opts Options) ([]any, int, error) {
	repo, err := bluesky.DecodeRepo(raw, bluesky.DecodeOptions{
		OwnerHandle: opts.OwnerHandle,
		OwnerDID:    opts.OwnerDID,
	})
	if err != nil {
		return nil, 0, &FormatError{Source: a.Type(), Err: err}
	}

	dropped := repo.Corrupt + repo.DroppedReposts
	if dropped > 0 {
		log.Printf("bluesky archive: dropped %d records (%d corrupt blocks, %d unresolvable reposts)",
			dropped, repo.Corrupt, repo.DroppedReposts)
	}

	natives := make([]any, len(repo.Records))
	for i, rec := range repo.Records {
		natives[i] = rec
	}
	return natives, dropped, nil
}

func (a blueskyAdapter) Normalize(native any, opts Options) Result {
	rec, ok := native.(bluesky.FeedRecord)
	if !ok {
		return degradedPost(a.Type(), "", native, "unexpected native record type")
	}

	post := entities.Post{
		SourceID:     rec.RKey,
		SourceType:   a.Type(),
		AuthorName:   rec.AuthorName,
		AuthorHandle: rec.AuthorHandle,
		SourceMeta:   map[string]string{"cid": rec.CID},
	}

	degradedReason := ""
	if created, err := parseRecordTime(rec.CreatedAt); err == nil {
		post.CreatedAt = created
	} else {
		post.CreatedAt = nowUTC()
		degradedReason = fmt.Sprintf("unparseable timestamp %q", rec.CreatedAt)
	}

	if rec.AuthorDID != "" {
		post.SourceMeta["did"] = rec.AuthorDID
	}
	if rec.ReplyParent != "" {
		post.SourceMeta["reply_parent"] = rec.ReplyParent
	}

	text := rec.Text
	if rec.Kind == "repost" {
		post.IsRepost = true
		post.SourceMeta["boost_of"] = rec.SubjectURI
		if rec.Subject != nil {
			// Content is copied from the boosted block found in the
			// same container.
			text = rec.Subject.Text
			post.SourceMeta["boost_cid"] = rec.Subject.CID
		} else {
			text = ""
		}
	}
	post.Content = SanitizeContent(text)

	if len(rec.Langs) > 0 {
		post.Language = rec.Langs[0]
	}

	for _, img := range rec.Images {
		post.Media = append(post.Media, entities.MediaItem{Type: "image", Alt: img.Alt})
	}
	if rec.External != nil {
		post.URLs = append(post.URLs, entities.URLItem{URL: CleanURL(rec.External.URI), Display: rec.External.Title})
	}
	post.Hashtags = ExtractHashtags(post.Content)
	post.Mentions = ExtractMentions(post.Content)
	for _, u := range ExtractURLs(post.Content) {
		post.URLs = append(post.URLs, entities.URLItem{URL: CleanURL(u)})
	}

	// The public web URL needs a resolvable handle; with only the
	// "unknown" sentinel the canonical URL stays unset.
	if rec.AuthorHandle != "" && rec.AuthorHandle != bluesky.UnknownHandle {
		post.CanonicalURL = fmt.Sprintf("https://bsky.app/profile/%s/post/%s", rec.AuthorHandle, rec.RKey)
	}

	finishPost(&post)
	return Result{Post: post, Degraded: degradedReason != "", Reason: degradedReason}
}
