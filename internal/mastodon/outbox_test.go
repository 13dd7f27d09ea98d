package mastodon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOutbox = `{
  "@context": "https://www.w3.org/ns/activitystreams",
  "id": "https://mastodon.example/users/alice/outbox",
  "type": "OrderedCollection",
  "totalItems": 2,
  "orderedItems": [
    {
      "id": "https://mastodon.example/users/alice/statuses/111/activity",
      "type": "Create",
      "actor": "https://mastodon.example/users/alice",
      "published": "2023-05-01T10:00:00Z",
      "to": ["https://www.w3.org/ns/activitystreams#Public"],
      "cc": ["https://mastodon.example/users/alice/followers"],
      "object": {
        "id": "https://mastodon.example/users/alice/statuses/111",
        "url": "https://mastodon.example/@alice/111",
        "type": "Note",
        "published": "2023-05-01T10:00:00Z",
        "attributedTo": "https://mastodon.example/users/alice",
        "content": "<p>Hello <a href=\"#\">#<span>fediverse</span></a></p>",
        "tag": [{"type": "Hashtag", "name": "#fediverse"}],
        "attachment": [{"type": "Document", "mediaType": "image/png", "url": "https://files.example/1.png", "name": "a screenshot"}]
      }
    },
    {
      "id": "https://mastodon.example/users/alice/statuses/222/activity",
      "type": "Announce",
      "actor": "https://mastodon.example/users/alice",
      "published": "2023-05-02T11:00:00Z",
      "to": ["https://www.w3.org/ns/activitystreams#Public"],
      "cc": [
        "https://other.example/users/bob",
        "https://mastodon.example/users/alice/followers"
      ],
      "object": "https://other.example/users/bob/statuses/999"
    }
  ]
}`

func TestParseOutbox_CreateAndAnnounce(t *testing.T) {
	outbox, err := ParseOutbox([]byte(sampleOutbox))

	require.NoError(t, err)
	require.Len(t, outbox.Items, 2)

	create := outbox.Items[0]
	assert.Equal(t, "Create", create.Type)
	require.NotNil(t, create.Object)
	assert.Contains(t, create.Object.Content, "Hello")
	assert.Equal(t, "#fediverse", create.Object.Tags[0].Name)

	announce := outbox.Items[1]
	assert.Equal(t, "Announce", announce.Type)
	assert.Nil(t, announce.Object)
	assert.Equal(t, "https://other.example/users/bob/statuses/999", announce.ObjectURI)
}

func TestParseOutbox_AnnounceAuthorComesFromRecipients(t *testing.T) {
	outbox, err := ParseOutbox([]byte(sampleOutbox))
	require.NoError(t, err)

	announce := outbox.Items[1]
	// The actor is the booster; the original author is in cc.
	assert.Equal(t, "https://other.example/users/bob", announce.AnnounceAuthor())
	assert.NotEqual(t, announce.Actor, announce.AnnounceAuthor())
}

func TestParseOutbox_RejectsNonCollection(t *testing.T) {
	_, err := ParseOutbox([]byte(`{"type": "Person", "name": "alice"}`))
	assert.ErrorIs(t, err, ErrNotOutbox)
}

func TestParseOutbox_RejectsPagedCollection(t *testing.T) {
	doc := `{
	  "type": "OrderedCollection",
	  "totalItems": 5000,
	  "first": "https://mastodon.example/users/alice/outbox?page=true"
	}`
	_, err := ParseOutbox([]byte(doc))
	assert.ErrorIs(t, err, ErrPagedCollection)
}

func TestParseOutbox_SkipsUnknownVerbs(t *testing.T) {
	doc := `{
	  "type": "OrderedCollection",
	  "orderedItems": [
	    {"type": "Like", "actor": "https://mastodon.example/users/alice", "object": "x"},
	    {"type": "Create", "actor": "https://mastodon.example/users/alice", "object": {"id": "n1", "content": "kept"}}
	  ]
	}`

	outbox, err := ParseOutbox([]byte(doc))

	require.NoError(t, err)
	assert.Len(t, outbox.Items, 1)
	assert.Equal(t, 1, outbox.Skipped)
}

func TestHandleFromActorURI(t *testing.T) {
	assert.Equal(t, "alice@mastodon.example", HandleFromActorURI("https://mastodon.example/users/alice"))
	assert.Equal(t, "bob@other.example", HandleFromActorURI("https://other.example/@bob"))
	assert.Equal(t, UnknownHandle, HandleFromActorURI("https://example.com/some/other/shape"))
	assert.Equal(t, UnknownHandle, HandleFromActorURI("::::not a uri"))
}
