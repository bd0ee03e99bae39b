package brain

import (
	"regexp"
	"strings"
)

// StripSelfMention removes <@botUserID> and <@botUserID|name> tokens from
// content. Content without such a token is returned unchanged.
func StripSelfMention(content, botUserID string) string {
	if botUserID == "" || !strings.Contains(content, "<@"+botUserID) {
		return content
	}

	pattern := selfMentionPattern(botUserID)
	if !pattern.MatchString(content) {
		return content
	}
	// Removing one token can splice together another, e.g. "<@<@U1>U1>".
	for pattern.MatchString(content) {
		content = pattern.ReplaceAllString(content, "")
	}
	return strings.TrimSpace(content)
}

func selfMentionPattern(botUserID string) *regexp.Regexp {
	return regexp.MustCompile(`<@` + regexp.QuoteMeta(botUserID) + `(?:\|[^>]*)?>[^\S\n]*`)
}
