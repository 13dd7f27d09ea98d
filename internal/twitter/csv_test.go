package twitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV_BasicRows(t *testing.T) {
	data := `id,link,text,date,likes,retweets,replies
"100","https://twitter.com/alice/status/100","hello world","2023-05-01 10:00:00",3,1,0
"101","https://twitter.com/alice/status/101","second post","2023-05-02 11:00:00",0,0,2
`

	rows, rowErrors, err := ParseCSV(strings.NewReader(data))

	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, rows, 2)
	assert.Equal(t, "100", rows[0].ID)
	assert.Equal(t, 3, rows[0].Likes)
	assert.Equal(t, 2, rows[1].Replies)
}

func TestParseCSV_EmbeddedNewlineIsOneRow(t *testing.T) {
	data := "id,link,text,date\n" +
		"\"100\",\"https://twitter.com/alice/status/100\",\"line one\nline two\",\"2023-05-01\"\n" +
		"\"101\",\"https://twitter.com/alice/status/101\",\"plain\",\"2023-05-02\"\n"

	rows, rowErrors, err := ParseCSV(strings.NewReader(data))

	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, rows, 2)
	assert.Equal(t, "line one\nline two", rows[0].Text)
}

func TestParseCSV_DoubledQuoteEscape(t *testing.T) {
	data := `id,link,text,date
"100","https://twitter.com/alice/status/100","she said ""hi""","2023-05-01"
`

	rows, _, err := ParseCSV(strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, `she said "hi"`, rows[0].Text)
}

func TestParseCSV_SkipsInvalidRows(t *testing.T) {
	data := `id,link,text,date
"not-a-number","https://twitter.com/alice/status/1","bad id","2023-05-01"
"2","definitely not a url","bad link","2023-05-01"
"3","https://twitter.com/alice/status/3","good","2023-05-01"
`

	rows, rowErrors, err := ParseCSV(strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "3", rows[0].ID)
	assert.Len(t, rowErrors, 2)
}

func TestParseCSV_HeaderAliases(t *testing.T) {
	data := `Tweet Id,Tweet URL,Tweet Text,Created At,Favorites
"55","https://x.com/bob/status/55","aliased headers","2023-06-01",9
`

	rows, _, err := ParseCSV(strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "55", rows[0].ID)
	assert.Equal(t, 9, rows[0].Likes)
}

func TestParseCSV_HeaderlessFileKeepsFirstRow(t *testing.T) {
	data := `"100","https://twitter.com/alice/status/100","no header here","2023-05-01 10:00:00",3,1,0
"101","https://twitter.com/alice/status/101","second post","2023-05-02 11:00:00",0,0,2
`

	rows, rowErrors, err := ParseCSV(strings.NewReader(data))

	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, rows, 2)
	assert.Equal(t, "100", rows[0].ID)
	assert.Equal(t, "no header here", rows[0].Text)
	assert.Equal(t, 3, rows[0].Likes)
	assert.Equal(t, "101", rows[1].ID)
}

func TestParseCSV_MissingRequiredColumn(t *testing.T) {
	// A first row that is neither a recognized header nor plausible data
	// leaves the layout undeterminable.
	data := `text,date
"no ids here","2023-05-01"
`
	_, _, err := ParseCSV(strings.NewReader(data))
	assert.Error(t, err)
}

func TestScreenNameFromLink(t *testing.T) {
	assert.Equal(t, "alice", ScreenNameFromLink("https://twitter.com/alice/status/100"))
	assert.Equal(t, "bob", ScreenNameFromLink("https://x.com/bob/statuses/200"))
	assert.Equal(t, "", ScreenNameFromLink("https://twitter.com/home"))
	assert.Equal(t, "", ScreenNameFromLink("not a link"))
}
