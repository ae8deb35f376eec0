package vesting

import "sync"

// StateStore is the world-state surface the contract reads and writes. A nil
// value returned from GetState means the key has never been written.
type StateStore interface {
	GetState(key string) ([]byte, error)
	PutState(key string, value []byte) error
	DelState(key string) error
}

// MemStore is an in-memory StateStore. Individual reads and writes are
// consistent under concurrent use; multi-key transactions are serialized by
// the contract's per-stage locks, not here.
type MemStore struct {
	mu    sync.RWMutex
	state map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{state: make(map[string][]byte)}
}

func (m *MemStore) GetState(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, found := m.state[key]
	if !found {
		return nil, nil
	}

	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

func (m *MemStore) PutState(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]byte, len(value))
	copy(copied, value)
	m.state[key] = copied
	return nil
}

func (m *MemStore) DelState(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.state, key)
	return nil
}
