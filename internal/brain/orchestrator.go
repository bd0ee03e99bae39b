package brain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/megumi-soft/slack-chatgpt/common/llm"
	"github.com/megumi-soft/slack-chatgpt/common/logger"
	"github.com/megumi-soft/slack-chatgpt/internal/domain"
	"github.com/megumi-soft/slack-chatgpt/internal/service"
	"github.com/megumi-soft/slack-chatgpt/internal/slack"
	"github.com/megumi-soft/slack-chatgpt/internal/webfetch"
)

// URLFetcher turns linked URLs into page content blocks.
type URLFetcher interface {
	FetchAll(ctx context.Context, urls []string) []domain.URLContent
}

// MentionResult summarizes what happened to one delivery.
type MentionResult struct {
	Duplicate    bool
	MessageCount int
	URLCount     int
	// FailedURLCount counts linked pages that were replaced by a failure note.
	FailedURLCount int
	Replied        bool
}

type OrchestratorConfig struct {
	Bot BotIdentity

	// FallbackReply is posted when history retrieval or completion fails.
	// Empty keeps the bot silent on failure.
	FallbackReply string
}

// Orchestrator runs the mention pipeline: dedup, history, linked pages,
// completion, reply. Calls are sequential within one delivery.
type Orchestrator struct {
	cfg            OrchestratorConfig
	guard          service.DedupGuard
	slack          slack.Client
	llm            llm.Client
	fetcher        URLFetcher
	contextBuilder *ContextBuilder
}

func NewOrchestrator(
	cfg OrchestratorConfig,
	guard service.DedupGuard,
	slackClient slack.Client,
	llmClient llm.Client,
	fetcher URLFetcher,
	persona Persona,
) *Orchestrator {
	slog.InfoContext(context.Background(), "orchestrator initialized",
		"bot_user_id", cfg.Bot.UserID,
		"model", llmClient.Model(),
		"fallback_reply", cfg.FallbackReply != "")

	return &Orchestrator{
		cfg:            cfg,
		guard:          guard,
		slack:          slackClient,
		llm:            llmClient,
		fetcher:        fetcher,
		contextBuilder: NewContextBuilder(persona),
	}
}

// HandleMention processes one app_mention. Errors wrap one of the domain
// error categories; a post failure after a successful claim is final.
func (o *Orchestrator) HandleMention(ctx context.Context, event domain.MentionEvent) (MentionResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:   logger.Ptr(event.EventID),
		Channel:   logger.Ptr(event.Channel),
		ThreadTS:  logger.Ptr(event.ReplyThreadTS()),
		Component: "slackgpt.brain.orchestrator",
	})

	sc := logger.StartSpan(ctx, "brain.handle_mention")
	defer sc.End()
	ctx = sc.Context()
	sc.Span().SetAttributes(
		attribute.String("slack.event_id", event.EventID),
		attribute.String("slack.channel", event.Channel),
		attribute.Bool("slack.in_thread", event.IsInThread()),
	)

	result, err := o.handle(ctx, event)
	if err != nil {
		sc.RecordError(err)
	}
	return result, err
}

func (o *Orchestrator) handle(ctx context.Context, event domain.MentionEvent) (MentionResult, error) {
	var result MentionResult

	duplicate, err := o.guard.Claim(ctx, event.EventID)
	if err != nil {
		slog.ErrorContext(ctx, "duplicate guard failed, aborting", "error", err)
		return result, err
	}
	if duplicate {
		result.Duplicate = true
		return result, nil
	}

	conversation, err := o.conversation(ctx, event)
	if err != nil {
		return result, o.fail(ctx, event, err)
	}

	urls := webfetch.ExtractURLs(event.Text)
	var pages []domain.URLContent
	if len(urls) > 0 {
		pages = o.fetcher.FetchAll(ctx, urls)
	}
	result.URLCount = len(urls)
	for _, page := range pages {
		if page.Failed {
			result.FailedURLCount++
		}
	}

	messages := o.contextBuilder.BuildMessages(conversation, pages)
	result.MessageCount = len(messages)

	slog.InfoContext(ctx, "context built",
		"message_count", len(messages),
		"history_count", len(conversation),
		"url_count", len(urls),
		"failed_urls", result.FailedURLCount)

	reply, err := o.llm.Complete(ctx, messages)
	if err != nil {
		return result, o.fail(ctx, event, fmt.Errorf("%w: %w", domain.ErrCompletion, err))
	}

	if err := o.slack.PostMessage(ctx, event.Channel, event.ReplyThreadTS(), reply); err != nil {
		// The event is already claimed; the reply is dropped rather than risk a duplicate.
		err = fmt.Errorf("%w: %w", domain.ErrPost, err)
		slog.ErrorContext(ctx, "reply post failed, not retrying", "error", err)
		return result, err
	}
	result.Replied = true

	slog.InfoContext(ctx, "reply posted", "reply", logger.Truncate(reply, 200))
	return result, nil
}

func (o *Orchestrator) conversation(ctx context.Context, event domain.MentionEvent) ([]llm.Message, error) {
	if !event.IsInThread() {
		return SingleMessageConversation(event, o.cfg.Bot), nil
	}

	raw, err := o.slack.Replies(ctx, event.Channel, event.ThreadTS)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
	}
	raw = withTriggeringMessage(raw, event)

	history := NormalizeHistory(raw, o.cfg.Bot)
	slog.DebugContext(ctx, "thread history loaded", "raw_count", len(raw), "message_count", len(history))
	return history, nil
}

// withTriggeringMessage appends the mention itself when the fetched thread does
// not contain it, so the completion always answers the newest question.
func withTriggeringMessage(raw []slack.Message, event domain.MentionEvent) []slack.Message {
	if event.TS == "" {
		return raw
	}
	for _, m := range raw {
		if m.TS == event.TS {
			return raw
		}
	}
	return append(raw, slack.Message{Type: "message", User: event.UserID, Text: event.Text, TS: event.TS})
}

// fail logs a terminal pipeline error and posts the fallback reply if one is configured.
func (o *Orchestrator) fail(ctx context.Context, event domain.MentionEvent, err error) error {
	slog.ErrorContext(ctx, "mention processing failed", "error", err,
		"retrieval", errors.Is(err, domain.ErrRetrieval),
		"completion", errors.Is(err, domain.ErrCompletion))

	if o.cfg.FallbackReply == "" {
		return err
	}
	if postErr := o.slack.PostMessage(ctx, event.Channel, event.ReplyThreadTS(), o.cfg.FallbackReply); postErr != nil {
		slog.ErrorContext(ctx, "fallback reply post failed", "error", postErr)
		return errors.Join(err, fmt.Errorf("%w: %w", domain.ErrPost, postErr))
	}
	return err
}
