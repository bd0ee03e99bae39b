package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/megumi-soft/slack-chatgpt/internal/domain"
	"github.com/megumi-soft/slack-chatgpt/internal/store"
)

// DedupGuard ensures a Slack event is processed at most once.
type DedupGuard interface {
	// Claim returns true when the event was already handled and must be skipped.
	// Otherwise it records the event and returns false. Store failures are
	// returned wrapped in domain.ErrDuplicateGuard; callers must abort.
	Claim(ctx context.Context, eventID string) (duplicate bool, err error)
}

type dedupGuard struct {
	events store.ProcessedEventStore
	now    func() time.Time
}

func NewDedupGuard(events store.ProcessedEventStore) DedupGuard {
	return &dedupGuard{
		events: events,
		now:    time.Now,
	}
}

func (g *dedupGuard) Claim(ctx context.Context, eventID string) (bool, error) {
	created, err := g.events.MarkProcessed(ctx, domain.ProcessedEvent{
		EventID:     eventID,
		ProcessedAt: g.now(),
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrDuplicateGuard, err)
	}

	if !created {
		slog.InfoContext(ctx, "duplicate event deduped", "event_id", eventID)
		return true, nil
	}

	return false, nil
}
