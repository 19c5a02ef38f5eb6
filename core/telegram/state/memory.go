package state

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]T
	closed   bool
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{sessions: make(map[int64]T)}
}

func (m *MemoryStore[T]) Load(_ context.Context, userID int64) (T, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var zero T
	if m.closed {
		return zero, false, ErrClosed
	}
	v, ok := m.sessions[userID]
	if !ok {
		return zero, false, nil
	}
	return v, true, nil
}

func (m *MemoryStore[T]) Save(_ context.Context, userID int64, v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.sessions[userID] = v
	return nil
}

func (m *MemoryStore[T]) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.sessions, userID)
	return nil
}

func (m *MemoryStore[T]) Each(ctx context.Context, fn func(userID int64, v T) bool) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	snapshot := make(map[int64]T, len(m.sessions))
	for id, v := range m.sessions {
		snapshot[id] = v
	}
	m.mu.RUnlock()

	for id, v := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(id, v) {
			return nil
		}
	}
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore[T]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.sessions = nil
	return nil
}
