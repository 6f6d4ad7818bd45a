package snapshot

import (
	"context"
	"sync"
)

// MemoryStore keeps the encoded snapshot in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, ErrNotFound
	}
	return Decode(s.data)
}

func (s *MemoryStore) Save(_ context.Context, st *State) error {
	data, err := Encode(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()
	return nil
}

// SetRaw stores data without validation.
func (s *MemoryStore) SetRaw(data []byte) {
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
}

// Raw returns the stored bytes, or nil.
func (s *MemoryStore) Raw() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}
