package kvstore

import (
	"context"
	"sync"
)

// Memory is a process-local key-value store. Values are lost on restart.
type Memory struct {
	mu      sync.RWMutex
	data    map[string]string
	getErr  error
	setErr  error
	setHits int
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setHits++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

// FailGets makes every subsequent Get return err. A nil err restores reads.
func (m *Memory) FailGets(err error) {
	m.mu.Lock()
	m.getErr = err
	m.mu.Unlock()
}

// FailSets makes every subsequent Set return err. A nil err restores writes.
func (m *Memory) FailSets(err error) {
	m.mu.Lock()
	m.setErr = err
	m.mu.Unlock()
}

// Writes reports how many Set calls were attempted.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.setHits
}

// Keys returns the number of stored keys.
func (m *Memory) Keys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
