package webfetch

import (
	"regexp"
	"strings"
)

// slackLinkPattern matches Slack auto-linked URLs: <https://example.com> and
// <https://example.com|label>. The label is discarded.
var slackLinkPattern = regexp.MustCompile(`<(https?://[^\s|>]+)(?:\|[^>]*)?>`)

// Slack escapes exactly these three characters in message text.
var slackUnescaper = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">")

// ExtractURLs returns every Slack-linked http(s) URL in text, in order of
// appearance. Duplicates are kept.
func ExtractURLs(text string) []string {
	matches := slackLinkPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, slackUnescaper.Replace(m[1]))
	}
	return urls
}
