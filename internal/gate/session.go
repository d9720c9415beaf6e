package gate

import (
	"context"
	"sync"
)

// SessionStore keeps boolean flags scoped to a browsing session.
type SessionStore interface {
	Flag(ctx context.Context, sessionID, name string) (bool, error)
	SetFlag(ctx context.Context, sessionID, name string) error
	Clear(ctx context.Context, sessionID string) error
}

// MemorySessions is a process-local SessionStore.
type MemorySessions struct {
	mu    sync.Mutex
	flags map[string]map[string]bool
}

// NewMemorySessions creates an empty store.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{flags: make(map[string]map[string]bool)}
}

func (m *MemorySessions) Flag(_ context.Context, sessionID, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags[sessionID][name], nil
}

func (m *MemorySessions) SetFlag(_ context.Context, sessionID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flags[sessionID] == nil {
		m.flags[sessionID] = make(map[string]bool)
	}
	m.flags[sessionID][name] = true
	return nil
}

func (m *MemorySessions) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flags, sessionID)
	return nil
}
