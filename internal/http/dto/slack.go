package dto

import (
	"github.com/slack-go/slack/slackevents"

	"github.com/megumi-soft/slack-chatgpt/internal/domain"
)

// SlackEnvelope holds the outer fields read before the full event is parsed:
// enough to answer the url_verification handshake and to key deduplication.
type SlackEnvelope struct {
	Type      string `json:"type"`
	Token     string `json:"token,omitempty"`
	Challenge string `json:"challenge,omitempty"`
	EventID   string `json:"event_id,omitempty"`
}

func (e SlackEnvelope) IsURLVerification() bool {
	return e.Type == slackevents.URLVerification
}

type URLVerificationResponse struct {
	Challenge string `json:"challenge"`
}

// MentionEventFromSlack maps a parsed app_mention onto the domain event.
func MentionEventFromSlack(eventID string, mention *slackevents.AppMentionEvent) domain.MentionEvent {
	return domain.MentionEvent{
		EventID:  eventID,
		Channel:  mention.Channel,
		TS:       mention.TimeStamp,
		ThreadTS: mention.ThreadTimeStamp,
		Text:     mention.Text,
		UserID:   mention.User,
	}
}
