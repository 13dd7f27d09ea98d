package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleForMapsSources(t *testing.T) {
	cfg := &Config{}
	cfg.Import.TwitterHandle = "alice"
	cfg.Import.BlueskyHandle = "alice.bsky.social"
	cfg.Import.MastodonHandle = "alice@mastodon.social"

	// Both twitter flavors belong to the same account.
	assert.Equal(t, "alice", cfg.HandleFor("twitter"))
	assert.Equal(t, "alice", cfg.HandleFor("twitter-csv"))
	assert.Equal(t, "alice.bsky.social", cfg.HandleFor("bluesky"))
	assert.Equal(t, "alice@mastodon.social", cfg.HandleFor("mastodon"))
	assert.Equal(t, "", cfg.HandleFor("myspace"))
}
