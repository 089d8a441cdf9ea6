package visitor

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process KV. It backs tests and single-instance setups
// without Valkey.
type Memory struct {
	mu      sync.Mutex
	values  map[string]map[string]string
	markers map[string]time.Time
	now     func() time.Time
}

// NewMemory creates an empty in-process KV.
func NewMemory() *Memory {
	return &Memory{
		values:  make(map[string]map[string]string),
		markers: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, visitorID, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[visitorID][key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, visitorID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[visitorID] == nil {
		m.values[visitorID] = make(map[string]string)
	}
	m.values[visitorID][key] = value
	return nil
}

func (m *Memory) SetNX(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if exp, ok := m.markers[key]; ok && now.Before(exp) {
		return false, nil
	}
	m.markers[key] = now.Add(ttl)
	return true, nil
}
