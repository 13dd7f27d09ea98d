package twitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wrappedTweets = `window.YTD.tweets.part0 = [
  {
    "tweet": {
      "id_str": "100",
      "full_text": "first tweet #golang",
      "created_at": "Mon May 01 10:00:00 +0000 2023",
      "favorite_count": "3",
      "retweet_count": "1",
      "lang": "en",
      "entities": {
        "hashtags": [{"text": "golang"}],
        "user_mentions": [],
        "urls": []
      }
    }
  },
  {
    "tweet": {
      "id_str": "101",
      "full_text": "RT @someone: reposted content",
      "created_at": "Tue May 02 11:00:00 +0000 2023",
      "favorite_count": "0",
      "retweet_count": "0"
    }
  }
]`

func TestParseArchiveJS_WithPrefixAndSemicolon(t *testing.T) {
	withSemicolon := wrappedTweets + ";"

	plain, skippedPlain, err := ParseArchiveJS([]byte(wrappedTweets))
	require.NoError(t, err)
	terminated, skippedTerminated, err := ParseArchiveJS([]byte(withSemicolon))
	require.NoError(t, err)

	// A trailing statement terminator must not change the result.
	assert.Equal(t, plain, terminated)
	assert.Equal(t, skippedPlain, skippedTerminated)
	require.Len(t, plain, 2)
	assert.Equal(t, "100", plain[0].IDStr)
	assert.Equal(t, 3, int(plain[0].FavoriteCount))
	assert.Equal(t, "golang", plain[0].Entities.Hashtags[0].Text)
}

func TestParseArchiveJS_LaterPartNumbers(t *testing.T) {
	data := `window.YTD.tweets.part13 = [{"tweet": {"id_str": "7", "full_text": "from part 13"}}]`

	tweets, _, err := ParseArchiveJS([]byte(data))

	require.NoError(t, err)
	require.Len(t, tweets, 1)
	assert.Equal(t, "7", tweets[0].IDStr)
}

func TestParseArchiveJS_BareArrayFallback(t *testing.T) {
	data := `[{"id_str": "200", "text": "legacy shape", "favorite_count": 5}]`

	tweets, skipped, err := ParseArchiveJS([]byte(data))

	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, tweets, 1)
	assert.Equal(t, "legacy shape", tweets[0].Body())
	assert.Equal(t, 5, int(tweets[0].FavoriteCount))
}

func TestParseArchiveJS_RejectsNonArray(t *testing.T) {
	_, _, err := ParseArchiveJS([]byte(`var something = {"not": "an array"}`))
	assert.ErrorIs(t, err, ErrNoArrayLiteral)
}

func TestParseArchiveJS_SkipsUnreadableElements(t *testing.T) {
	data := `[{"id_str": "1", "text": "good"}, {"no_id": true}, {"id_str": "2", "text": "also good"}]`

	tweets, skipped, err := ParseArchiveJS([]byte(data))

	require.NoError(t, err)
	assert.Len(t, tweets, 2)
	assert.Equal(t, 1, skipped)
}

func TestParseCreatedAt(t *testing.T) {
	parsed, err := ParseCreatedAt("Mon May 01 10:00:00 +0000 2023")
	require.NoError(t, err)
	assert.Equal(t, 2023, parsed.Year())

	parsed, err = ParseCreatedAt("2023-05-01T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 5, int(parsed.Month()))

	_, err = ParseCreatedAt("last tuesday")
	assert.Error(t, err)
}

func TestTweetBody_PrefersFullText(t *testing.T) {
	tweet := Tweet{FullText: "full", Text: "short"}
	assert.Equal(t, "full", tweet.Body())

	tweet = Tweet{Text: "short"}
	assert.Equal(t, "short", tweet.Body())
}
