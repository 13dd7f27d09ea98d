package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceForFile(t *testing.T) {
	cases := map[string]string{
		"repo.car":             "bluesky",
		"BACKUP.CAR":           "bluesky",
		"outbox.json":          "mastodon",
		"outbox-2023.json":     "mastodon",
		"tweets.js":            "twitter",
		"tweets-part1.js":      "twitter",
		"backup.csv":           "twitter-csv",
		"notes.txt":            "",
		"archive.json":         "",
		"outbox.json.tar.gz":   "",
		"somethingelse.js":     "",
		"tweets.js.swp":        "",
		"subfolder.car.backup": "",
	}
	for name, want := range cases {
		assert.Equal(t, want, SourceForFile(name), "file %q", name)
	}
}
