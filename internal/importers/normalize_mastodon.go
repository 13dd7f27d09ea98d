package importers

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/avolkov/keepsake/internal/entities"
	"github.com/avolkov/keepsake/internal/mastodon"
)

// mastodonAdapter imports ActivityPub outbox documents.
type mastodonAdapter struct{}

func (mastodonAdapter) Type() entities.SourceType {
	return entities.SourceMastodon
}

func (a mastodonAdapter) Decode(raw []byte, opts Options) ([]any, int, error) {
	outbox, err := mastodon.ParseOutbox(raw)
	if err != nil {
		return nil, 0, &FormatError{Source: a.Type(), Err: err}
	}
	if outbox.Skipped > 0 {
		log.Printf("mastodon outbox: skipped %d unrecognized items", outbox.Skipped)
	}

	natives := make([]any, len(outbox.Items))
	for i, item := range outbox.Items {
		natives[i] = item
	}
	return natives, outbox.Skipped, nil
}

func (a mastodonAdapter) Normalize(native any, opts Options) Result {
	activity, ok := native.(mastodon.Activity)
	if !ok {
		return degradedPost(a.Type(), "", native, "unexpected native record type")
	}

	switch activity.Type {
	case "Announce":
		return a.normalizeAnnounce(activity)
	default:
		return a.normalizeCreate(activity)
	}
}

func (a mastodonAdapter) normalizeCreate(activity mastodon.Activity) Result {
	note := activity.Object
	if note == nil {
		return degradedPost(a.Type(), statusID(activity.ID), activity, "create activity without an embedded note")
	}

	post := entities.Post{
		SourceID:     statusID(note.ID),
		SourceType:   a.Type(),
		Content:      SanitizeContent(StripHTML(note.Content)),
		AuthorHandle: mastodon.HandleFromActorURI(activity.Actor),
		SourceMeta:   map[string]string{},
	}
	post.AuthorName = handleLocalPart(post.AuthorHandle)

	if domain := actorDomain(activity.Actor); domain != "" {
		post.SourceMeta["instance"] = domain
	}
	if note.InReplyTo != "" {
		post.SourceMeta["in_reply_to"] = note.InReplyTo
	}
	if note.Sensitive && note.Summary != "" {
		post.SourceMeta["content_warning"] = note.Summary
	}

	degradedReason := ""
	published := note.Published
	if published == "" {
		published = activity.Published
	}
	if created, err := parseRecordTime(published); err == nil {
		post.CreatedAt = created
	} else {
		post.CreatedAt = nowUTC()
		degradedReason = fmt.Sprintf("unparseable timestamp %q", published)
	}

	// Structured entities are preferred; the regex fallback only covers
	// notes exported without a tag list.
	if len(note.Tags) > 0 {
		for _, tag := range note.Tags {
			switch tag.Type {
			case "Hashtag":
				post.Hashtags = append(post.Hashtags, strings.TrimPrefix(tag.Name, "#"))
			case "Mention":
				post.Mentions = append(post.Mentions, strings.TrimPrefix(tag.Name, "@"))
			}
		}
	} else {
		post.Hashtags = ExtractHashtags(post.Content)
		post.Mentions = ExtractMentions(post.Content)
	}

	for _, attachment := range note.Attachments {
		post.Media = append(post.Media, entities.MediaItem{
			Type: mediaKind(attachment.MediaType),
			URL:  CleanURL(attachment.URL),
			Alt:  attachment.Name,
		})
	}
	for _, u := range ExtractURLs(post.Content) {
		post.URLs = append(post.URLs, entities.URLItem{URL: CleanURL(u)})
	}

	canonical := note.URL
	if canonical == "" {
		canonical = note.ID
	}
	post.CanonicalURL = CleanURL(canonical)

	finishPost(&post)
	return Result{Post: post, Degraded: degradedReason != "", Reason: degradedReason}
}

func (a mastodonAdapter) normalizeAnnounce(activity mastodon.Activity) Result {
	post := entities.Post{
		SourceID:   statusID(activity.ID),
		SourceType: a.Type(),
		IsRepost:   true,
		SourceMeta: map[string]string{},
	}

	// The activity's actor is the booster; the boosted author comes from
	// the recipient list.
	post.SourceMeta["boosted_by"] = mastodon.HandleFromActorURI(activity.Actor)
	if original := activity.AnnounceAuthor(); original != "" {
		post.AuthorHandle = mastodon.HandleFromActorURI(original)
	} else {
		post.AuthorHandle = mastodon.UnknownHandle
	}
	post.AuthorName = handleLocalPart(post.AuthorHandle)

	if activity.Object != nil {
		post.Content = SanitizeContent(StripHTML(activity.Object.Content))
		post.SourceMeta["boost_of"] = activity.Object.ID
	} else {
		// The boosted note is not part of the export; keep the reference
		// instead of fabricating content.
		post.SourceMeta["boost_of"] = activity.ObjectURI
		post.CanonicalURL = CleanURL(activity.ObjectURI)
	}

	degradedReason := ""
	if created, err := parseRecordTime(activity.Published); err == nil {
		post.CreatedAt = created
	} else {
		post.CreatedAt = nowUTC()
		degradedReason = fmt.Sprintf("unparseable timestamp %q", activity.Published)
	}

	finishPost(&post)
	return Result{Post: post, Degraded: degradedReason != "", Reason: degradedReason}
}

// statusID extracts the platform-native status identifier from an
// object/activity URI, e.g. ".../statuses/111" -> "111".
func statusID(uri string) string {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(uri, "/activity"), "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 && i+1 < len(trimmed) {
		return trimmed[i+1:]
	}
	return trimmed
}

func actorDomain(actor string) string {
	u, err := url.Parse(actor)
	if err != nil {
		return ""
	}
	return u.Host
}

func handleLocalPart(handle string) string {
	if i := strings.Index(handle, "@"); i > 0 {
		return handle[:i]
	}
	return handle
}

func mediaKind(mediaType string) string {
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return "image"
	case strings.HasPrefix(mediaType, "video/"):
		return "video"
	case strings.HasPrefix(mediaType, "audio/"):
		return "audio"
	default:
		return "document"
	}
}
