package store

import (
	"context"
	gosync "sync"
)

// MemoryKV is an in-process KV used for ephemeral sessions and tests.
// Setting FailWrites or FailReads makes the matching operation return
// that error, which simulates quota or I/O failures.
type MemoryKV struct {
	mu         gosync.Mutex
	data       map[string]string
	writes     int
	FailWrites error
	FailReads  error
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

// Get returns the stored value for key.
func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailReads != nil {
		return "", false, m.FailReads
	}
	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data[key] = value
	m.writes++
	return nil
}

// Writes returns the number of successful Set calls.
func (m *MemoryKV) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Raw returns the stored value without touching failure injection.
func (m *MemoryKV) Raw(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}
