package domain

import (
	"fmt"
	"time"
)

// MentionEvent is an app_mention delivered by the Slack Events API.
type MentionEvent struct {
	EventID  string // Unique per delivery envelope, used for deduplication
	Channel  string
	TS       string // Timestamp of the mentioning message itself
	ThreadTS string // Root timestamp when the mention is inside a thread
	Text     string
	UserID   string
}

// IsInThread reports whether the mention was posted as a thread reply.
func (e MentionEvent) IsInThread() bool {
	return e.ThreadTS != ""
}

// ReplyThreadTS is the thread the reply should be posted under.
// Mentions outside a thread open a new thread rooted at the mention.
func (e MentionEvent) ReplyThreadTS() string {
	if e.ThreadTS != "" {
		return e.ThreadTS
	}
	return e.TS
}

// ProcessedEvent records that an event id has been claimed for processing.
type ProcessedEvent struct {
	EventID     string
	ProcessedAt time.Time
}

// URLContent is the extracted text of a page linked from the latest message.
type URLContent struct {
	SourceURL string
	Summary   string
	Failed    bool // Summary is a placeholder describing why the fetch failed
}

// Render formats the block as it is sent to the model.
func (c URLContent) Render() string {
	return fmt.Sprintf("Content of %s\n---\n%s", c.SourceURL, c.Summary)
}
