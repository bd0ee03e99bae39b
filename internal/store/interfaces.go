package store

import (
	"context"
	"errors"

	"github.com/megumi-soft/slack-chatgpt/internal/domain"
)

var ErrEmptyEventID = errors.New("event id is required")

// ProcessedEventStore persists which Slack events have been claimed.
type ProcessedEventStore interface {
	// MarkProcessed atomically records the event if it has not been seen.
	// created is false when a record for the event id already existed.
	MarkProcessed(ctx context.Context, event domain.ProcessedEvent) (created bool, err error)
}
