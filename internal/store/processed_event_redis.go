package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/megumi-soft/slack-chatgpt/internal/domain"
)

type redisProcessedEventStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisProcessedEventStore stores one key per event id. The TTL is the
// retention policy; Slack stops retrying a delivery well within a day.
func NewRedisProcessedEventStore(client redis.UniversalClient, prefix string, ttl time.Duration) ProcessedEventStore {
	return &redisProcessedEventStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *redisProcessedEventStore) MarkProcessed(ctx context.Context, event domain.ProcessedEvent) (bool, error) {
	if event.EventID == "" {
		return false, ErrEmptyEventID
	}

	created, err := s.client.SetNX(ctx, s.key(event.EventID), event.ProcessedAt.UTC().Format(time.RFC3339Nano), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx processed event: %w", err)
	}
	return created, nil
}

func (s *redisProcessedEventStore) key(eventID string) string {
	return s.prefix + eventID
}
