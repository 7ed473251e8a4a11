package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/mrt/pkg/domain"
	"github.com/aretw0/mrt/pkg/ports"
	"github.com/aretw0/mrt/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.SessionState
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.SessionState)
	}
	s.data[sessionID] = state.Snapshot()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.data[sessionID]; ok {
		return state.Snapshot(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_UpdateSerializes(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	require.NoError(t, manager.Save(ctx, id, domain.NewSessionState(id, domain.Identity{}, 0)))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, id, func(s *domain.SessionState) error {
				s.Token++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Without the lock, read-modify-write would lose increments.
	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), state.Token)
}

func TestManager_UpdateFailureDoesNotSave(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	require.NoError(t, manager.Save(ctx, "s", domain.NewSessionState("s", domain.Identity{}, 0)))

	boom := errors.New("boom")
	_, err := manager.Update(ctx, "s", func(s *domain.SessionState) error {
		s.Token = 99
		return boom
	})
	assert.ErrorIs(t, err, boom)

	state, err := manager.Load(ctx, "s")
	require.NoError(t, err)
	assert.Zero(t, state.Token)

	_, err = manager.Update(ctx, "missing", func(*domain.SessionState) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_LoadOrCreate(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := manager.LoadOrCreate(ctx, id, func() (*domain.SessionState, error) {
				created.Add(1)
				return domain.NewSessionState(id, domain.Identity{ParticipantID: "P1"}, 7), nil
			})
			assert.NoError(t, err)
			assert.NotNil(t, state)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), state.Seed)
}

type fakeLocker struct {
	mu        sync.Mutex
	locks     int
	unlocks   int
	lastTTL   time.Duration
	lockErr   error
	unlockErr error
}

func (f *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	f.locks++
	f.lastTTL = ttl
	return func(ctx context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unlocks++
		return f.unlockErr
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &fakeLocker{unlockErr: errors.New("expired")}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "s", domain.NewSessionState("s", domain.Identity{}, 0)))
	_, err := manager.Load(ctx, "s")
	require.NoError(t, err)

	assert.Equal(t, 2, locker.locks)
	assert.Equal(t, 2, locker.unlocks)
	assert.Equal(t, time.Second, locker.lastTTL)

	locker.lockErr = errors.New("contended")
	err = manager.Save(ctx, "s", domain.NewSessionState("s", domain.Identity{}, 0))
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}
