package importers

import (
	"html"
	"regexp"
	"strings"
)

// Extraction and sanitization patterns shared by all normalizers.
var (
	hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_]+(?:@[A-Za-z0-9.-]+)?)`)
	urlPattern     = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

	scriptPattern    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>|<script[^>]*/?>`)
	eventAttrPattern = regexp.MustCompile(`(?i)\son\w+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	jsURIPattern     = regexp.MustCompile(`(?i)javascript\s*:`)

	brPattern      = regexp.MustCompile(`(?i)<br\s*/?>`)
	pClosePattern  = regexp.MustCompile(`(?i)</p>\s*`)
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

	// nestedURLPattern matches export-bug URLs whose path is itself a
	// full URL, e.g. https://host/https://host/post/1.
	nestedURLPattern = regexp.MustCompile(`^https?://[^/]+/(https?://.+)$`)

	// dupHandlePattern matches @user@host path segments where the host
	// repeats the URL's own host, e.g. https://host/@user@host/1.
	dupHandlePattern = regexp.MustCompile(`^(https?://([^/]+))/@([^/@]+)@([^/]+)(/.*)?$`)
)

// SanitizeContent removes script-like and event-handler-like substrings
// so a record is safe before it is ever rendered.
func SanitizeContent(s string) string {
	s = scriptPattern.ReplaceAllString(s, "")
	s = eventAttrPattern.ReplaceAllString(s, "")
	s = jsURIPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// StripHTML flattens exported HTML content (activity-stream notes) into
// plain text, preserving paragraph and line breaks.
func StripHTML(s string) string {
	s = scriptPattern.ReplaceAllString(s, "")
	s = brPattern.ReplaceAllString(s, "\n")
	s = pClosePattern.ReplaceAllString(s, "\n\n")
	s = htmlTagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(html.UnescapeString(s))
}

// NormalizeLanguage lowercases a language code and strips regional
// subtags ("en-US" -> "en"). Empty codes default to "en".
func NormalizeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	if code == "" {
		return "en"
	}
	return code
}

// CleanURL collapses the URL duplication patterns some exports produce:
// a scheme://host prefix repeated in the path, and @user@host path
// segments that repeat the host.
func CleanURL(raw string) string {
	raw = strings.TrimSpace(raw)

	for {
		m := nestedURLPattern.FindStringSubmatch(raw)
		if m == nil {
			break
		}
		raw = m[1]
	}

	if m := dupHandlePattern.FindStringSubmatch(raw); m != nil && strings.EqualFold(m[2], m[4]) {
		raw = m[1] + "/@" + m[3] + m[5]
	}

	return raw
}

// ExtractHashtags pulls hashtags out of plain text, in order, without
// the leading "#".
func ExtractHashtags(text string) []string {
	var tags []string
	for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		tags = append(tags, m[1])
	}
	return tags
}

// ExtractMentions pulls @mentions out of plain text, in order, without
// the leading "@".
func ExtractMentions(text string) []string {
	var mentions []string
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		mentions = append(mentions, m[1])
	}
	return mentions
}

// ExtractURLs pulls bare links out of plain text, in order.
func ExtractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}
