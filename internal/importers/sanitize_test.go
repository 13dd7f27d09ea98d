package importers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeContentStripsScripts(t *testing.T) {
	out := SanitizeContent(`hello <script>alert("x")</script>world`)
	assert.Equal(t, "hello world", out)
	assert.NotContains(t, out, "script")
}

func TestSanitizeContentStripsEventHandlers(t *testing.T) {
	out := SanitizeContent(`<img src="a.png" onerror="steal()">`)
	assert.NotContains(t, out, "onerror")
	assert.NotContains(t, out, "steal")
}

func TestSanitizeContentStripsJavascriptURIs(t *testing.T) {
	out := SanitizeContent(`click javascript:alert(1) here`)
	assert.NotContains(t, out, "javascript:")
}

func TestStripHTMLPreservesBreaks(t *testing.T) {
	out := StripHTML(`<p>first line<br>second line</p><p>next paragraph</p>`)
	assert.Equal(t, "first line\nsecond line\n\nnext paragraph", out)
}

func TestStripHTMLUnescapesEntities(t *testing.T) {
	assert.Equal(t, `"fish & chips"`, StripHTML(`&quot;fish &amp; chips&quot;`))
}

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, "en", NormalizeLanguage("en-US"))
	assert.Equal(t, "pt", NormalizeLanguage("PT_br"))
	assert.Equal(t, "en", NormalizeLanguage(""))
	assert.Equal(t, "de", NormalizeLanguage(" de "))
}

func TestCleanURLCollapsesNestedURL(t *testing.T) {
	in := "https://mastodon.social/https://mastodon.social/@alice/111"
	assert.Equal(t, "https://mastodon.social/@alice/111", CleanURL(in))
}

func TestCleanURLDeduplicatesHandleHost(t *testing.T) {
	in := "https://mastodon.social/@alice@mastodon.social/111"
	assert.Equal(t, "https://mastodon.social/@alice/111", CleanURL(in))

	// A handle on a different instance is legitimate and kept intact.
	other := "https://mastodon.social/@alice@example.org/111"
	assert.Equal(t, other, CleanURL(other))
}

func TestExtractHashtags(t *testing.T) {
	tags := ExtractHashtags("shipping #golang and #opensource today")
	assert.Equal(t, []string{"golang", "opensource"}, tags)
}

func TestExtractMentionsWithDomains(t *testing.T) {
	mentions := ExtractMentions("thanks @bob and @alice@example.org!")
	assert.Equal(t, []string{"bob", "alice@example.org"}, mentions)
}

func TestExtractURLs(t *testing.T) {
	urls := ExtractURLs("see https://example.com/a and http://example.org/b.")
	assert.Len(t, urls, 2)
	assert.Equal(t, "https://example.com/a", urls[0])
}
