package archive

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps a bounded in-process archive. It is the default
// when no database is configured.
type InMemoryStore struct {
	mu      sync.Mutex
	records []Record
	max     int
}

func NewInMemoryStore(max int) *InMemoryStore {
	if max <= 0 {
		max = 10000
	}
	return &InMemoryStore{max: max}
}

func (s *InMemoryStore) SaveAction(_ context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	if len(s.records) > s.max {
		s.records = s.records[len(s.records)-s.max:]
	}
	return nil
}

func (s *InMemoryStore) RecentBySession(_ context.Context, sessionID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if s.records[i].SessionID == sessionID {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

func (s *InMemoryStore) Close() {}
