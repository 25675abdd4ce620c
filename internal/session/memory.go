package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps states in process memory. States are lost on restart and
// are not shared between instances.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]stateRecord
	now    func() time.Time
}

// NewMemoryStore initializes a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]stateRecord),
		now:    time.Now,
	}
}

func (m *MemoryStore) SaveState(ctx context.Context, sessionID, state string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeExpired()
	m.states[string(stateKey(sessionID))] = stateRecord{State: state, ExpiresAt: expiresAt.Unix()}
	return nil
}

func (m *MemoryStore) GetState(ctx context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := string(stateKey(sessionID))
	record, ok := m.states[key]
	if !ok {
		return "", ErrStateNotFound
	}
	if m.now().Unix() > record.ExpiresAt {
		delete(m.states, key)
		return "", ErrStateNotFound
	}
	return record.State, nil
}

func (m *MemoryStore) TakeState(ctx context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := string(stateKey(sessionID))
	record, ok := m.states[key]
	if !ok {
		return "", ErrStateNotFound
	}
	delete(m.states, key)
	if m.now().Unix() > record.ExpiresAt {
		return "", ErrStateNotFound
	}
	return record.State, nil
}

func (m *MemoryStore) DeleteState(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, string(stateKey(sessionID)))
	return nil
}

func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// PurgeExpired removes expired states and returns how many were dropped.
func (m *MemoryStore) PurgeExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purgeExpired(), nil
}

// purgeExpired drops expired states. Callers hold m.mu.
func (m *MemoryStore) purgeExpired() int {
	now := m.now().Unix()
	purged := 0
	for k, record := range m.states {
		if now > record.ExpiresAt {
			delete(m.states, k)
			purged++
		}
	}
	return purged
}
