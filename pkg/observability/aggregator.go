package observability

import (
	"context"
	"sync"

	"github.com/aretw0/mrt/pkg/domain"
)

// DefaultWatchBuffer is the per-watcher snapshot buffer.
const DefaultWatchBuffer = 16

// Aggregator combines the snapshots of many sessions into watch streams.
// Slow watchers drop snapshots rather than stall the publisher.
type Aggregator struct {
	mu       sync.Mutex
	watchers map[chan *domain.SessionState]string
	buffer   int
}

// NewAggregator creates a new aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		watchers: make(map[chan *domain.SessionState]string),
		buffer:   DefaultWatchBuffer,
	}
}

// Publish hands a snapshot to every watcher of its session (and every
// watcher of all sessions). The snapshot must not be mutated afterwards.
func (a *Aggregator) Publish(s *domain.SessionState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for ch, sessionID := range a.watchers {
		if sessionID != "" && sessionID != s.SessionID {
			continue
		}
		select {
		case ch <- s:
		default:
		}
	}
}

// Watch returns the snapshot channel for sessionID ("" watches all sessions).
// The channel is closed when ctx is done.
func (a *Aggregator) Watch(ctx context.Context, sessionID string) <-chan *domain.SessionState {
	ch := make(chan *domain.SessionState, a.buffer)
	a.mu.Lock()
	a.watchers[ch] = sessionID
	a.mu.Unlock()

	go func() {
		<-ctx.Done()
		a.mu.Lock()
		delete(a.watchers, ch)
		close(ch)
		a.mu.Unlock()
	}()
	return ch
}

// Watchers reports the number of active watchers.
func (a *Aggregator) Watchers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.watchers)
}
