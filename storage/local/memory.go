package local

import (
	"sync"

	"github.com/trezcool/masomo-portal/core"
)

// Memory is a process-local core.Storage.
type Memory struct {
	mu      sync.RWMutex
	data    map[string]string
	changes *core.Emitter[core.StorageChange]
}

var _ core.Storage = (*Memory)(nil)

func NewMemory(logger core.Logger) *Memory {
	return &Memory{
		data:    make(map[string]string),
		changes: core.NewEmitter[core.StorageChange]("storage", logger),
	}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()

	m.changes.Emit(core.StorageChange{Key: key, Value: value})
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	_, ok := m.data[key]
	delete(m.data, key)
	m.mu.Unlock()

	if ok {
		m.changes.Emit(core.StorageChange{Key: key, Removed: true})
	}
	return nil
}

func (m *Memory) Watch(fn func(core.StorageChange)) func() {
	return m.changes.Subscribe(fn)
}

// Keys returns the stored keys (unordered).
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
