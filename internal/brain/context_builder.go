package brain

import (
	"github.com/megumi-soft/slack-chatgpt/common/llm"
	"github.com/megumi-soft/slack-chatgpt/internal/domain"
)

// ContextBuilder assembles the message list sent to the completion API.
type ContextBuilder struct {
	persona Persona
}

func NewContextBuilder(persona Persona) *ContextBuilder {
	return &ContextBuilder{persona: persona}
}

// BuildMessages returns, in order: the persona as the only leading system
// message, the conversation verbatim, then one system message per linked page
// in extraction order.
func (b *ContextBuilder) BuildMessages(conversation []llm.Message, pages []domain.URLContent) []llm.Message {
	messages := make([]llm.Message, 0, 1+len(conversation)+len(pages))

	messages = append(messages, llm.SystemMessage(b.persona.Prompt))
	messages = append(messages, conversation...)
	for _, page := range pages {
		messages = append(messages, llm.SystemMessage(page.Render()))
	}

	return messages
}

// SingleMessageConversation is the conversation for a mention outside a thread.
func SingleMessageConversation(event domain.MentionEvent, bot BotIdentity) []llm.Message {
	return []llm.Message{llm.UserMessage(StripSelfMention(event.Text, bot.UserID))}
}
