package buffer

import (
	"context"
	"sync"
)

// Memory is an in-memory TextBuffer. Persist snapshots the live text into
// a separate saved copy, mirroring a host that saves to disk.
type Memory struct {
	mu    sync.Mutex
	live  string
	saved string
}

// NewMemory creates a memory buffer with the given initial content, which
// starts out persisted.
func NewMemory(content string) *Memory {
	return &Memory{live: content, saved: content}
}

func (m *Memory) Read(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live, nil
}

func (m *Memory) Write(ctx context.Context, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live = content
	return nil
}

func (m *Memory) Persist(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = m.live
	return nil
}

func (m *Memory) Revert(ctx context.Context, snapshot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live = snapshot
	m.saved = snapshot
	return nil
}

// Saved returns the last persisted text.
func (m *Memory) Saved() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}
