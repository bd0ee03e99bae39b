package store

import (
	"context"
	"sync"

	"github.com/megumi-soft/slack-chatgpt/internal/domain"
)

// MemoryProcessedEventStore is a process-local store for development and tests.
// It does not deduplicate across replicas.
type MemoryProcessedEventStore struct {
	mu     sync.Mutex
	events map[string]domain.ProcessedEvent
}

func NewMemoryProcessedEventStore() *MemoryProcessedEventStore {
	return &MemoryProcessedEventStore{events: make(map[string]domain.ProcessedEvent)}
}

func (s *MemoryProcessedEventStore) MarkProcessed(_ context.Context, event domain.ProcessedEvent) (bool, error) {
	if event.EventID == "" {
		return false, ErrEmptyEventID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.EventID]; ok {
		return false, nil
	}
	s.events[event.EventID] = event
	return true, nil
}
