package repository

import (
	"context"
	"sync"

	"nextstep-polls/pkg/logger"
)

const (
	memoryPollsKey   = "polls"
	memoryBallotsKey = "votes"
)

type memoryKV struct {
	mu   sync.RWMutex
	data map[string]string
	// err, when set, is returned by every operation
	err error
}

func (m *memoryKV) get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryKV) put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *memoryKV) del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// MemoryStore is an in-process Store. It serializes exactly like the durable
// backends so tests exercise the same decode paths.
type MemoryStore struct {
	*kvStore
	mem *memoryKV
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	mem := &memoryKV{data: map[string]string{}}
	return &MemoryStore{
		kvStore: newKVStore(mem, memoryPollsKey, memoryBallotsKey, log),
		mem:     mem,
	}
}

// SetRawPolls overwrites the serialized poll collection
func (m *MemoryStore) SetRawPolls(raw string) {
	m.mem.mu.Lock()
	m.mem.data[memoryPollsKey] = raw
	m.mem.mu.Unlock()
}

// SetRawBallots overwrites the serialized ballot record
func (m *MemoryStore) SetRawBallots(raw string) {
	m.mem.mu.Lock()
	m.mem.data[memoryBallotsKey] = raw
	m.mem.mu.Unlock()
}

// FailWith makes every subsequent operation return err. Pass nil to recover.
func (m *MemoryStore) FailWith(err error) {
	m.mem.mu.Lock()
	m.mem.err = err
	m.mem.mu.Unlock()
}
