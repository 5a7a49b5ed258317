package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type memoryRecord struct {
	data      Values
	expiresAt time.Time
}

// MemoryStore implements Store and Sweeper in process memory. Expired
// records are hidden from Get immediately and removed lazily or by a sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	clock   clockwork.Clock

	cleanupInterval time.Duration
	cleanupOpts     []SchedulerOption
	scheduler       *CleanupScheduler
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock sets the clock used for expiry checks
func WithMemoryClock(clock clockwork.Clock) MemoryOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMemoryCleanup sweeps expired records every interval until Close.
func WithMemoryCleanup(interval time.Duration, opts ...SchedulerOption) MemoryOption {
	return func(s *MemoryStore) {
		s.cleanupInterval = interval
		s.cleanupOpts = opts
	}
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]memoryRecord),
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cleanupInterval > 0 {
		opts := append([]SchedulerOption{
			WithSchedulerName("memory"),
			WithSchedulerClock(s.clock),
		}, s.cleanupOpts...)
		s.scheduler = NewCleanupScheduler(s, s.cleanupInterval, opts...)
		s.scheduler.Start(context.Background())
	}

	return s
}

// Get returns a copy of the payload stored under id
func (s *MemoryStore) Get(_ context.Context, id string) (Values, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	if !rec.expiresAt.After(s.clock.Now()) {
		s.mu.Lock()
		if cur, ok := s.records[id]; ok && !cur.expiresAt.After(s.clock.Now()) {
			delete(s.records, id)
		}
		s.mu.Unlock()
		return nil, nil
	}

	return rec.data.Clone(), nil
}

// Set stores a copy of data under id
func (s *MemoryStore) Set(_ context.Context, id string, data Values, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = memoryRecord{data: data.Clone(), expiresAt: expiresAt}
	return nil
}

// Touch moves the expiry of a live record
func (s *MemoryStore) Touch(_ context.Context, id string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || !rec.expiresAt.After(s.clock.Now()) {
		return nil
	}

	rec.expiresAt = expiresAt
	s.records[id] = rec
	return nil
}

// Destroy removes a record by id
func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}

// DeleteExpired removes all expired records
func (s *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var removed int64
	for id, rec := range s.records {
		if !rec.expiresAt.After(now) {
			delete(s.records, id)
			removed++
		}
	}

	return removed, nil
}

// Len returns the number of records held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close stops the cleanup loop, if any
func (s *MemoryStore) Close() error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	return nil
}
