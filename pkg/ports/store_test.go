package ports_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/ports"
	"github.com/stretchr/testify/assert"
)

// MockStore is a JSON-serializing implementation of StateStore for testing purposes.
type MockStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string][]byte)}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = b
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	m.mu.Lock()
	b, ok := m.data[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var s domain.SessionState
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestStateStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, NewMockStore())
}

func TestSinkFunc(t *testing.T) {
	var got domain.Envelope
	sink := ports.SinkFunc(func(ctx context.Context, env domain.Envelope) error {
		got = env
		return nil
	})
	err := sink.Submit(context.Background(), domain.Envelope{Action: domain.EnvelopeSummary})
	assert.NoError(t, err)
	assert.Equal(t, domain.EnvelopeSummary, got.Action)

	assert.NoError(t, ports.NopSink.Submit(context.Background(), domain.Envelope{}))
}
