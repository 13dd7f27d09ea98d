package twitter

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNoArrayLiteral indicates the file contains neither the recognized
// assignment prefix nor a bare JSON array.
var ErrNoArrayLiteral = errors.New("no parseable tweet array literal found")

// partPrefix matches the assignment the official archive wraps its data
// in, e.g. "window.YTD.tweets.part0 = ".
var partPrefix = regexp.MustCompile(`^window\.YTD\.tweets\.part\d+\s*=\s*`)

// looseCount tolerates both JSON numbers and the quoted numbers the
// official archive exports.
type looseCount int

func (c *looseCount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("parsing count %q: %w", s, err)
	}
	*c = looseCount(n)
	return nil
}

// Hashtag, Mention, URL and Media are the structured entity entries the
// archive attaches to a tweet.
type Hashtag struct {
	Text string `json:"text"`
}

type Mention struct {
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
}

type URL struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
	DisplayURL  string `json:"display_url"`
}

type Media struct {
	Type     string `json:"type"`
	MediaURL string `json:"media_url_https"`
	AltText  string `json:"media_alt_text"`
}

type Entities struct {
	Hashtags []Hashtag `json:"hashtags"`
	Mentions []Mention `json:"user_mentions"`
	URLs     []URL     `json:"urls"`
	Media    []Media   `json:"media"`
}

// Tweet is one source-native record from a tweets.js archive.
type Tweet struct {
	IDStr               string     `json:"id_str"`
	FullText            string     `json:"full_text"`
	Text                string     `json:"text"` // legacy archives
	CreatedAt           string     `json:"created_at"`
	FavoriteCount       looseCount `json:"favorite_count"`
	RetweetCount        looseCount `json:"retweet_count"`
	Lang                string     `json:"lang"`
	Entities            *Entities  `json:"entities"`
	ExtendedEntities    *Entities  `json:"extended_entities"`
	RetweetedStatus     *Tweet     `json:"retweeted_status"`
	InReplyToStatusID   string     `json:"in_reply_to_status_id_str"`
	InReplyToScreenName string     `json:"in_reply_to_screen_name"`
}

// Body returns the tweet text across archive generations.
func (t Tweet) Body() string {
	if t.FullText != "" {
		return t.FullText
	}
	return t.Text
}

// createdAtFormats covers the archive's native timestamp plus the
// RFC 3339 shape some third-party conversions emit.
var createdAtFormats = []string{
	"Mon Jan 02 15:04:05 -0700 2006",
	time.RFC3339,
}

// ParseCreatedAt parses a tweet timestamp.
func ParseCreatedAt(s string) (time.Time, error) {
	for _, format := range createdAtFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse tweet timestamp: %q", s)
}

// ParseArchiveJS parses a tweets.js file from the official archive.
//
// The file is a JS assignment wrapping a JSON array; the prefix and an
// optional trailing ";" are stripped before parsing. Files that are
// already a bare JSON array are accepted as a fallback. Array elements
// may wrap the tweet under a "tweet" property or be the tweet itself.
// Returns the tweets in file order plus the count of unreadable elements.
func ParseArchiveJS(data []byte) ([]Tweet, int, error) {
	text := strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff"))

	if loc := partPrefix.FindStringIndex(text); loc != nil {
		text = text[loc[1]:]
	}
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";"))

	if !strings.HasPrefix(text, "[") {
		return nil, 0, ErrNoArrayLiteral
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(text), &elements); err != nil {
		return nil, 0, fmt.Errorf("decoding tweet array: %w", err)
	}

	tweets := make([]Tweet, 0, len(elements))
	skipped := 0

	for _, raw := range elements {
		var wrapper struct {
			Tweet *Tweet `json:"tweet"`
		}
		if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Tweet != nil {
			tweets = append(tweets, *wrapper.Tweet)
			continue
		}

		var tweet Tweet
		if err := json.Unmarshal(raw, &tweet); err != nil || tweet.IDStr == "" {
			skipped++
			continue
		}
		tweets = append(tweets, tweet)
	}

	return tweets, skipped, nil
}
