// Package repository keeps the rider population served by the service.
package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/peloton/internal/domain/rider"
	"github.com/okian/peloton/pkg/metrics"
)

// Snapshot is an immutable view of the population at one load.
type Snapshot struct {
	Records  []rider.Record
	Version  uint64
	LoadedAt time.Time
}

// Store provides read/write access to the current population.
type Store interface {
	// Replace validates records and swaps them in as the new population.
	// The previous population stays in place when validation fails.
	Replace(ctx context.Context, records []rider.Record) (Snapshot, error)

	// Snapshot returns the current population.
	Snapshot(ctx context.Context) Snapshot

	// Get returns one rider by name, case-insensitively.
	// Returns ErrNotFound if the rider is unknown.
	Get(ctx context.Context, name string) (rider.Record, error)

	// Count returns the number of riders in the population.
	Count(ctx context.Context) int
}

// MemoryStore is an in-memory Store. Readers share the current snapshot;
// Replace builds a new one so readers never see a partial population.
type MemoryStore struct {
	mu    sync.RWMutex
	snap  Snapshot
	index map[string]int
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		index: map[string]int{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Replace swaps in a new population.
func (s *MemoryStore) Replace(_ context.Context, records []rider.Record) (Snapshot, error) {
	pop, err := rider.NewPopulation(records)
	if err != nil {
		metrics.RecordValidationError()
		return Snapshot{}, fmt.Errorf("replace population: %w", err)
	}

	index := make(map[string]int, len(pop))
	for i, r := range pop {
		index[strings.ToLower(r.Name)] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{
		Records:  pop,
		Version:  s.snap.Version + 1,
		LoadedAt: s.now(),
	}
	s.index = index
	metrics.UpdatePopulationSize(len(pop))
	return s.copySnapshot(), nil
}

// Snapshot returns a copy of the current population.
func (s *MemoryStore) Snapshot(_ context.Context) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copySnapshot()
}

// Get returns one rider by name.
func (s *MemoryStore) Get(_ context.Context, name string) (rider.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return rider.Record{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return s.snap.Records[i], nil
}

// Count returns the population size.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snap.Records)
}

// copySnapshot must be called with the lock held.
func (s *MemoryStore) copySnapshot() Snapshot {
	out := s.snap
	out.Records = append(make([]rider.Record, 0, len(s.snap.Records)), s.snap.Records...)
	return out
}
