// Package storage persists the armed alarm so it survives a restart.
package storage

import (
	"context"
	"sync"

	"github.com/hammamikhairi/alarmclock/internal/domain"
	"github.com/hammamikhairi/alarmclock/internal/logger"
)

// Compile-time interface check.
var _ domain.AlarmStore = (*MemoryStore)(nil)

// MemoryStore keeps the alarm state in memory. Used in headless tests and
// when no state file is configured. Safe for concurrent access.
type MemoryStore struct {
	mu    sync.RWMutex
	state *domain.AlarmState
	log   *logger.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{log: log}
}

// Save replaces the stored state.
func (s *MemoryStore) Save(ctx context.Context, state domain.AlarmState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("saving alarm state (armed=%v, %02d:%02d)", state.Armed, state.Hour, state.Minute)
	s.state = &state
	return nil
}

// Load returns the stored state, or domain.ErrNotFound if nothing was saved.
func (s *MemoryStore) Load(ctx context.Context) (domain.AlarmState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return domain.AlarmState{}, domain.ErrNotFound
	}
	return *s.state, nil
}
