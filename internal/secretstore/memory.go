package secretstore

import (
	"bytes"
	"context"
	"sync"
)

// MemoryBackend keeps values in process memory. It is used for tests and
// ephemeral runs; nothing survives the process.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte

	// failWith, when set, is returned by every call.
	failWith error
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

// Put implements Backend.
func (m *MemoryBackend) Put(_ context.Context, name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.values[name] = bytes.Clone(value)
	return nil
}

// Get implements Backend.
func (m *MemoryBackend) Get(_ context.Context, name string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failWith != nil {
		return nil, false, m.failWith
	}
	v, ok := m.values[name]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if v, ok := m.values[name]; ok {
		zero(v)
		delete(m.values, name)
	}
	return nil
}

// Clear implements Backend.
func (m *MemoryBackend) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for k, v := range m.values {
		zero(v)
		delete(m.values, k)
	}
	return nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	return nil
}

// Names returns the stored names. Used by tests to look for orphans.
func (m *MemoryBackend) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.values))
	for k := range m.values {
		names = append(names, k)
	}
	return names
}

// SetFailure sets or clears the injected failure under the lock.
func (m *MemoryBackend) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
