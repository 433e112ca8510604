package repository

import (
	"context"
	"sync"
)

// MemorySlotStore keeps slots in process memory. Data is lost on restart.
type MemorySlotStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemorySlotStore constructs an empty MemorySlotStore.
func NewMemorySlotStore() *MemorySlotStore {
	return &MemorySlotStore{slots: make(map[string][]byte)}
}

func (s *MemorySlotStore) Read(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.slots[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *MemorySlotStore) Write(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = append([]byte(nil), value...)
	return nil
}
