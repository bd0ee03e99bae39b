package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	slackapi "github.com/slack-go/slack"
)

const (
	DefaultBaseURL = "https://slack.com/api"

	replyPageSize = 200
	// Requests stop here even if Slack reports more pages.
	maxReplyPages = 100
	// Threads longer than this keep their root plus the newest messages.
	defaultMaxThreadMessages = 1000
)

// Message is a thread message as returned by conversations.replies.
type Message struct {
	Type     string
	Subtype  string
	User     string
	BotID    string
	Text     string
	TS       string
	ThreadTS string
}

// APIError describes a failed Web API call: a non-2xx status or ok=false.
type APIError struct {
	Method     string
	StatusCode int
	Code       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("slack %s failed: %s", e.Method, e.Code)
	}
	return fmt.Sprintf("slack %s http %d", e.Method, e.StatusCode)
}

// Client is the subset of the Slack Web API the relay needs.
type Client interface {
	// Replies returns the thread rooted at ts, oldest first.
	Replies(ctx context.Context, channel, ts string) ([]Message, error)
	// PostMessage posts text to channel, threaded under threadTS when non-empty.
	PostMessage(ctx context.Context, channel, threadTS, text string) error
}

type ClientOption func(*client)

// WithMaxThreadMessages caps how many thread messages Replies returns.
func WithMaxThreadMessages(n int) ClientOption {
	return func(c *client) {
		if n > 1 {
			c.maxThreadMessages = n
		}
	}
}

type client struct {
	api               *slackapi.Client
	maxThreadMessages int
}

func NewClient(httpClient *http.Client, baseURL, botToken string, opts ...ClientOption) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &client{
		api: slackapi.New(strings.TrimSpace(botToken),
			slackapi.OptionAPIURL(baseURL+"/"),
			slackapi.OptionHTTPClient(httpClient),
		),
		maxThreadMessages: defaultMaxThreadMessages,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) Replies(ctx context.Context, channel, ts string) ([]Message, error) {
	channel = strings.TrimSpace(channel)
	ts = strings.TrimSpace(ts)
	if channel == "" || ts == "" {
		return nil, fmt.Errorf("channel and ts are required")
	}

	params := &slackapi.GetConversationRepliesParameters{
		ChannelID: channel,
		Timestamp: ts,
		Limit:     replyPageSize,
	}

	window := newThreadWindow(c.maxThreadMessages)
	for page := 0; ; page++ {
		msgs, hasMore, nextCursor, err := c.api.GetConversationRepliesContext(ctx, params)
		if err != nil {
			return nil, apiError("conversations.replies", err)
		}
		for _, m := range msgs {
			window.add(fromAPIMessage(m))
		}

		nextCursor = strings.TrimSpace(nextCursor)
		if !hasMore || nextCursor == "" {
			break
		}
		if page+1 >= maxReplyPages {
			slog.WarnContext(ctx, "thread pagination limit reached, newest replies may be missing",
				"channel", channel, "thread_ts", ts, "pages", maxReplyPages)
			break
		}
		params.Cursor = nextCursor
	}

	messages := window.messages()
	if window.dropped > 0 {
		slog.InfoContext(ctx, "long thread trimmed to newest messages",
			"channel", channel, "thread_ts", ts, "dropped", window.dropped, "kept", len(messages))
	}
	return messages, nil
}

func (c *client) PostMessage(ctx context.Context, channel, threadTS, text string) error {
	channel = strings.TrimSpace(channel)
	threadTS = strings.TrimSpace(threadTS)
	if channel == "" {
		return fmt.Errorf("channel is required")
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text is required")
	}

	msgOpts := []slackapi.MsgOption{slackapi.MsgOptionText(text, false)}
	if threadTS != "" {
		msgOpts = append(msgOpts, slackapi.MsgOptionTS(threadTS))
	}

	if _, _, err := c.api.PostMessageContext(ctx, channel, msgOpts...); err != nil {
		return apiError("chat.postMessage", err)
	}
	return nil
}

func fromAPIMessage(m slackapi.Message) Message {
	return Message{
		Type:     m.Type,
		Subtype:  m.SubType,
		User:     m.User,
		BotID:    m.BotID,
		Text:     m.Text,
		TS:       m.Timestamp,
		ThreadTS: m.ThreadTimestamp,
	}
}

// apiError maps slack-go failures onto APIError; transport and decode errors pass through wrapped.
func apiError(method string, err error) error {
	var slackErr slackapi.SlackErrorResponse
	if errors.As(err, &slackErr) {
		return &APIError{Method: method, StatusCode: http.StatusOK, Code: errorCode(slackErr.Err)}
	}
	var statusErr slackapi.StatusCodeError
	if errors.As(err, &statusErr) {
		return &APIError{Method: method, StatusCode: statusErr.Code}
	}
	var rateErr *slackapi.RateLimitedError
	if errors.As(err, &rateErr) {
		return &APIError{Method: method, StatusCode: http.StatusTooManyRequests, Code: "ratelimited"}
	}
	return fmt.Errorf("slack %s: %w", method, err)
}

func errorCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "unknown_error"
	}
	return code
}
