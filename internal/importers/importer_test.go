package importers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/keepsake/internal/entities"
)

const tweetsJS = `window.YTD.tweets.part0 = [
  {
    "tweet": {
      "id_str": "1001",
      "full_text": "first tweet about #golang",
      "created_at": "Mon Jan 02 15:04:05 +0000 2023",
      "favorite_count": "3",
      "retweet_count": "1"
    }
  },
  {
    "tweet": {
      "id_str": "1002",
      "full_text": "second tweet, nothing special",
      "created_at": "Tue Jan 03 10:00:00 +0000 2023",
      "favorite_count": "0",
      "retweet_count": "0"
    }
  }
];`

func TestImporterImportsArchive(t *testing.T) {
	store := &memoryStore{}
	importer := NewImporter(NewRegistry(), store)

	result, err := importer.Import(context.Background(), entities.SourceTwitter, []byte(tweetsJS), Options{OwnerHandle: "alice"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Accepted)
	assert.Equal(t, 0, result.Skipped)
	assert.Len(t, store.posts, 2)
	assert.Equal(t, "twitter-1001", store.posts[0].ID)
	assert.Equal(t, []string{"golang"}, store.posts[0].Hashtags)
	assert.Contains(t, result.Message, "imported 2 twitter posts")
}

func TestImporterDiffIsIdempotent(t *testing.T) {
	store := &memoryStore{}
	importer := NewImporter(NewRegistry(), store)
	ctx := context.Background()

	first, err := importer.ImportDiff(ctx, entities.SourceTwitter, []byte(tweetsJS), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Accepted)

	second, err := importer.ImportDiff(ctx, entities.SourceTwitter, []byte(tweetsJS), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Accepted)
	assert.Equal(t, 2, second.Skipped)
	assert.Len(t, store.posts, 2)
}

func TestImporterPlainImportIgnoresStoredKeys(t *testing.T) {
	store := &memoryStore{}
	importer := NewImporter(NewRegistry(), store)
	ctx := context.Background()

	_, err := importer.Import(ctx, entities.SourceTwitter, []byte(tweetsJS), Options{})
	require.NoError(t, err)

	// A non-diff re-import only deduplicates within the archive itself;
	// the store's unique index is the last line of defense then.
	again, err := importer.Import(ctx, entities.SourceTwitter, []byte(tweetsJS), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, again.Accepted)
	assert.Equal(t, 0, again.Skipped)
}

func TestImporterRejectsUnknownSource(t *testing.T) {
	importer := NewImporter(NewRegistry(), &memoryStore{})

	_, err := importer.Import(context.Background(), entities.SourceType("myspace"), []byte("{}"), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestImporterReportsFormatError(t *testing.T) {
	importer := NewImporter(NewRegistry(), &memoryStore{})

	result, err := importer.Import(context.Background(), entities.SourceTwitter, []byte(`{"not": "an archive"}`), Options{})
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, entities.SourceTwitter, formatErr.Source)
	assert.False(t, result.Success)
	assert.Zero(t, result.Accepted)
}

func TestImporterEmitsLifecycleEvents(t *testing.T) {
	var steps []string
	opts := Options{OnProgress: func(p Progress) { steps = append(steps, p.Step) }}
	importer := NewImporter(NewRegistry(), &memoryStore{})

	_, err := importer.Import(context.Background(), entities.SourceTwitter, []byte(tweetsJS), opts)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(steps), 4)
	assert.Equal(t, "initializing", steps[0])
	assert.Equal(t, "parsing", steps[1])
	assert.Contains(t, steps, "processing")
	assert.Equal(t, "complete", steps[len(steps)-1])
}

func TestImporterCountsDecodeStageDrops(t *testing.T) {
	// One Create, one item with a verb the decoder does not understand.
	// The dropped item must show up in the failed count instead of the
	// import reporting a clean zero.
	outbox := `{
	  "type": "OrderedCollection",
	  "orderedItems": [
	    {
	      "id": "https://mastodon.social/users/alice/statuses/111/activity",
	      "type": "Create",
	      "actor": "https://mastodon.social/users/alice",
	      "published": "2023-04-01T12:00:00Z",
	      "object": {
	        "id": "https://mastodon.social/users/alice/statuses/111",
	        "content": "<p>hello</p>",
	        "published": "2023-04-01T12:00:00Z"
	      }
	    },
	    {
	      "id": "https://mastodon.social/users/alice/likes/5",
	      "type": "Like",
	      "actor": "https://mastodon.social/users/alice",
	      "object": "https://example.org/notes/9"
	    }
	  ]
	}`

	importer := NewImporter(NewRegistry(), &memoryStore{})
	result, err := importer.Import(context.Background(), entities.SourceMastodon, []byte(outbox), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Accepted)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Message, "1 dropped")
}

func TestImporterCountsUnusableCSVRows(t *testing.T) {
	data := "id,link,text,date\n" +
		"\"abc\",\"https://twitter.com/alice/status/1\",\"bad id\",\"2023-05-01\"\n" +
		"\"2\",\"https://twitter.com/alice/status/2\",\"good\",\"2023-05-01\"\n"

	importer := NewImporter(NewRegistry(), &memoryStore{})
	result, err := importer.Import(context.Background(), entities.SourceTwitterCSV, []byte(data), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Accepted)
	assert.Equal(t, 1, result.Failed)
}

func TestImporterWorksWithoutStore(t *testing.T) {
	importer := NewImporter(NewRegistry(), nil)

	result, err := importer.ImportDiff(context.Background(), entities.SourceTwitter, []byte(tweetsJS), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Accepted)
	assert.Len(t, result.Posts, 2)
}
