package importers

import (
	"fmt"
	"log"
	"strings"

	"github.com/avolkov/keepsake/internal/entities"
	"github.com/avolkov/keepsake/internal/twitter"
)

// twitterAdapter imports official tweets.js archives.
type twitterAdapter struct{}

func (twitterAdapter) Type() entities.SourceType {
	return entities.SourceTwitter
}

func (a twitterAdapter) Decode(raw []byte, opts Options) ([]any, int, error) {
	tweets, skipped, err := twitter.ParseArchiveJS(raw)
	if err != nil {
		return nil, 0, &FormatError{Source: a.Type(), Err: err}
	}
	if skipped > 0 {
		log.Printf("twitter archive: skipped %d unreadable elements", skipped)
	}

	natives := make([]any, len(tweets))
	for i, tweet := range tweets {
		natives[i] = tweet
	}
	return natives, skipped, nil
}

func (a twitterAdapter) Normalize(native any, opts Options) Result {
	tweet, ok := native.(twitter.Tweet)
	if !ok {
		return degradedPost(a.Type(), "", native, "unexpected native record type")
	}
	if tweet.IDStr == "" {
		return degradedPost(a.Type(), "", native, "tweet without an identifier")
	}

	post := entities.Post{
		SourceID:     tweet.IDStr,
		SourceType:   a.Type(),
		AuthorHandle: opts.OwnerHandle,
		Content:      SanitizeContent(tweet.Body()),
		Likes:        int(tweet.FavoriteCount),
		Shares:       int(tweet.RetweetCount),
		Language:     tweet.Lang,
		SourceMeta:   map[string]string{},
	}

	degradedReason := ""
	if created, err := twitter.ParseCreatedAt(tweet.CreatedAt); err == nil {
		post.CreatedAt = created
	} else {
		post.CreatedAt = nowUTC()
		degradedReason = fmt.Sprintf("unparseable timestamp %q", tweet.CreatedAt)
	}

	if tweet.RetweetedStatus != nil {
		post.IsRepost = true
		post.SourceMeta["retweet_of"] = tweet.RetweetedStatus.IDStr
	} else if strings.HasPrefix(post.Content, "RT @") {
		post.IsRepost = true
	}
	if tweet.InReplyToStatusID != "" {
		post.SourceMeta["in_reply_to"] = tweet.InReplyToStatusID
		post.SourceMeta["in_reply_to_user"] = tweet.InReplyToScreenName
	}

	entitiesBlock := tweet.Entities
	if tweet.ExtendedEntities != nil && len(tweet.ExtendedEntities.Media) > 0 {
		entitiesBlock = tweet.ExtendedEntities
	}
	if entitiesBlock != nil {
		for _, tag := range entitiesBlock.Hashtags {
			post.Hashtags = append(post.Hashtags, tag.Text)
		}
		for _, mention := range entitiesBlock.Mentions {
			post.Mentions = append(post.Mentions, mention.ScreenName)
		}
		for _, u := range entitiesBlock.URLs {
			link := u.ExpandedURL
			if link == "" {
				link = u.URL
			}
			post.URLs = append(post.URLs, entities.URLItem{URL: CleanURL(link), Display: u.DisplayURL})
		}
		for _, media := range entitiesBlock.Media {
			kind := media.Type
			if kind == "" {
				kind = "photo"
			}
			post.Media = append(post.Media, entities.MediaItem{Type: kind, URL: media.MediaURL, Alt: media.AltText})
		}
	}
	if entitiesBlock == nil {
		post.Hashtags = ExtractHashtags(post.Content)
		post.Mentions = ExtractMentions(post.Content)
		for _, u := range ExtractURLs(post.Content) {
			post.URLs = append(post.URLs, entities.URLItem{URL: CleanURL(u)})
		}
	}

	if opts.OwnerHandle != "" {
		post.CanonicalURL = fmt.Sprintf("https://twitter.com/%s/status/%s", opts.OwnerHandle, tweet.IDStr)
	} else {
		post.CanonicalURL = fmt.Sprintf("https://twitter.com/i/web/status/%s", tweet.IDStr)
	}

	finishPost(&post)
	return Result{Post: post, Degraded: degradedReason != "", Reason: degradedReason}
}
