package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack/slackevents"

	"github.com/megumi-soft/slack-chatgpt/common/id"
	"github.com/megumi-soft/slack-chatgpt/common/logger"
	"github.com/megumi-soft/slack-chatgpt/internal/brain"
	"github.com/megumi-soft/slack-chatgpt/internal/domain"
	"github.com/megumi-soft/slack-chatgpt/internal/http/dto"
)

// MentionHandler runs the reply pipeline for one app_mention.
type MentionHandler interface {
	HandleMention(ctx context.Context, event domain.MentionEvent) (brain.MentionResult, error)
}

// Slack event payloads are a few KiB; anything near this is not from Slack.
const maxEventBodyBytes = 1 << 20

type SlackWebhookConfig struct {
	// Async acknowledges the delivery before the pipeline runs.
	Async bool
	// Timeout bounds one detached pipeline run in async mode.
	Timeout time.Duration
}

type SlackWebhookHandler struct {
	mentions MentionHandler
	cfg      SlackWebhookConfig
	inflight sync.WaitGroup
}

func NewSlackWebhookHandler(mentions MentionHandler, cfg SlackWebhookConfig) *SlackWebhookHandler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &SlackWebhookHandler{
		mentions: mentions,
		cfg:      cfg,
	}
}

// HandleEvent answers every delivery with 200 so Slack never retries on our errors;
// duplicates from its own retries are absorbed by the dedup guard.
func (h *SlackWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxEventBodyBytes))
	if err != nil {
		slog.WarnContext(ctx, "failed to read slack webhook body", "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
		return
	}

	var envelope dto.SlackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		slog.WarnContext(ctx, "malformed slack webhook payload", "error", err, "body", logger.Truncate(string(body), 500))
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
		return
	}
	if envelope.IsURLVerification() {
		slog.InfoContext(ctx, "slack url verification")
		c.JSON(http.StatusOK, dto.URLVerificationResponse{Challenge: envelope.Challenge})
		return
	}

	// Signatures are checked by middleware; the legacy verification token is not used.
	payload, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		slog.DebugContext(ctx, "ignoring unparsable slack event", "error", err, "type", envelope.Type)
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
		return
	}

	mention, ok := payload.InnerEvent.Data.(*slackevents.AppMentionEvent)
	if payload.Type != slackevents.CallbackEvent || !ok {
		slog.DebugContext(ctx, "ignoring slack event", "type", payload.Type, "event_type", payload.InnerEvent.Type)
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
		return
	}
	event := dto.MentionEventFromSlack(envelope.EventID, mention)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		DeliveryID: logger.Ptr(id.New()),
		EventID:    logger.Ptr(event.EventID),
		EventType:  logger.Ptr(payload.InnerEvent.Type),
		Channel:    logger.Ptr(event.Channel),
		Component:  "slackgpt.http.webhook.slack",
	})

	slog.InfoContext(ctx, "slack mention received",
		"user", event.UserID,
		"retry_num", c.GetHeader("X-Slack-Retry-Num"),
		"retry_reason", c.GetHeader("X-Slack-Retry-Reason"),
		"async", h.cfg.Async)

	if h.cfg.Async {
		h.inflight.Add(1)
		go func() {
			defer h.inflight.Done()
			runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.cfg.Timeout)
			defer cancel()
			h.process(runCtx, event)
		}()
	} else {
		h.process(ctx, event)
	}

	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// Wait blocks until every detached pipeline run has finished.
func (h *SlackWebhookHandler) Wait() {
	h.inflight.Wait()
}

func (h *SlackWebhookHandler) process(ctx context.Context, event domain.MentionEvent) {
	result, err := h.mentions.HandleMention(ctx, event)
	if err != nil {
		slog.ErrorContext(ctx, "slack mention processing failed", "error", err)
		return
	}

	slog.InfoContext(ctx, "slack mention processed",
		"duplicate", result.Duplicate,
		"message_count", result.MessageCount,
		"url_count", result.URLCount,
		"failed_urls", result.FailedURLCount,
		"replied", result.Replied)
}
