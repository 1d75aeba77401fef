package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"codetrack-backend/lib/timezone"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore implements Store in memory. It exists for tests and for
// running the pipeline against fixture data without a mongo deployment.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*StudentRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]*StudentRecord{}}
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*StudentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok || !record.IsActive {
		return nil, ErrNotFound
	}
	return record.Clone(), nil
}

func (s *MemoryStore) GetByRoll(_ context.Context, roll string) (*StudentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records {
		if record.IsActive && strings.EqualFold(record.RollNo, roll) {
			return record.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListStale(_ context.Context, cutoff time.Time) ([]*StudentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*StudentRecord
	for _, record := range s.records {
		if record.IsActive && record.LastScrapedAt.Before(cutoff) {
			out = append(out, record.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, record *StudentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.UpdatedAt = timezone.Now()
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
		if record.CreatedAt.IsZero() {
			record.CreatedAt = record.UpdatedAt
		}
	}
	s.records[record.ID.Hex()] = record.Clone()
	return nil
}

func (s *MemoryStore) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	record.IsActive = false
	return nil
}
