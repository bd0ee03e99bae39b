package llm

import (
	"context"
	"errors"
)

// Role tags a message for the chat-completion API.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a conversation message.
type Message struct {
	Role    Role
	Content string
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

var (
	ErrNoChoices    = errors.New("no choices in response")
	ErrEmptyContent = errors.New("empty content in response")
)

// Client sends an ordered message list and returns the model's reply text.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Model() string
}

// Config holds LLM client configuration.
type Config struct {
	APIKey    string // Required
	BaseURL   string // Optional: custom API endpoint (Azure, proxies, tests)
	Model     string
	MaxTokens int // 0 = provider default
}
