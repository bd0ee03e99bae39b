package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/megumi-soft/slack-chatgpt/common/id"
	"github.com/megumi-soft/slack-chatgpt/internal/domain"
)

const insertProcessedEvent = `
INSERT INTO processed_events (id, event_id, processed_at)
VALUES ($1, $2, $3)
ON CONFLICT (event_id) DO NOTHING`

type postgresProcessedEventStore struct {
	pool *pgxpool.Pool
}

// NewPostgresProcessedEventStore relies on the unique index on event_id for atomicity.
func NewPostgresProcessedEventStore(pool *pgxpool.Pool) ProcessedEventStore {
	return &postgresProcessedEventStore{pool: pool}
}

func (s *postgresProcessedEventStore) MarkProcessed(ctx context.Context, event domain.ProcessedEvent) (bool, error) {
	if event.EventID == "" {
		return false, ErrEmptyEventID
	}

	tag, err := s.pool.Exec(ctx, insertProcessedEvent, id.New(), event.EventID, event.ProcessedAt)
	if err != nil {
		return false, fmt.Errorf("inserting processed event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
