package store

import (
	"context"
	"sync"
	"time"

	"github.com/kjstillabower/city-explorer/internal/models"
	"github.com/kjstillabower/city-explorer/internal/observability"
)

// MemoryStore is a process-local LocationStore. Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]models.LocationRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]models.LocationRecord)}
}

func (s *MemoryStore) Lookup(ctx context.Context, searchQuery string) (models.LocationRecord, bool, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		observability.ObserveStoreOp("lookup", start, err)
		return models.LocationRecord{}, false, unavailable("memory lookup", err)
	}
	s.mu.RLock()
	rec, ok := s.data[searchQuery]
	s.mu.RUnlock()
	observability.ObserveStoreOp("lookup", start, nil)
	return rec, ok, nil
}

func (s *MemoryStore) InsertIfAbsent(ctx context.Context, rec models.LocationRecord) (models.LocationRecord, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		observability.ObserveStoreOp("insert", start, err)
		return models.LocationRecord{}, unavailable("memory insert", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.data[rec.SearchQuery]; ok {
		observability.ObserveStoreOp("insert", start, nil)
		return existing, nil
	}
	s.data[rec.SearchQuery] = rec
	observability.ObserveStoreOp("insert", start, nil)
	return rec, nil
}

// Len reports how many locations are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return unavailable("memory ping", err)
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }
