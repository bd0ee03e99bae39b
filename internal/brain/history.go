package brain

import (
	"github.com/megumi-soft/slack-chatgpt/common/llm"
	"github.com/megumi-soft/slack-chatgpt/internal/slack"
)

// BotIdentity identifies messages the bot itself authored.
type BotIdentity struct {
	UserID string // Slack user id of the bot (the one mentioned as <@UserID>)
	BotID  string // Optional bot_id stamped on messages posted through the app
}

func (b BotIdentity) authored(m slack.Message) bool {
	if b.UserID != "" && m.User == b.UserID {
		return true
	}
	return b.BotID != "" && m.BotID == b.BotID
}

// NormalizeHistory converts a thread into role-tagged messages, oldest first.
// Messages without text are dropped; the bot's own messages become assistant
// turns and everyone else's become user turns.
func NormalizeHistory(raw []slack.Message, bot BotIdentity) []llm.Message {
	messages := make([]llm.Message, 0, len(raw))
	for _, m := range raw {
		if m.Text == "" {
			continue
		}

		content := StripSelfMention(m.Text, bot.UserID)
		if bot.authored(m) {
			messages = append(messages, llm.AssistantMessage(content))
		} else {
			messages = append(messages, llm.UserMessage(content))
		}
	}
	return messages
}
