package docbatch

import (
	"context"
	"sync"
	"time"
)

// DefaultProgressInterval is how often subscribers receive the current
// snapshot.
const DefaultProgressInterval = 500 * time.Millisecond

// Snapshot is the latest batch completion state. It is a process-wide
// single value: every publish overwrites the previous one and no history
// is kept.
type Snapshot struct {
	Percent int    `json:"percent"`
	Message string `json:"message"`
	Ready   bool   `json:"ready"`
}

// idleSnapshot is the reset value published before any batch has run.
var idleSnapshot = Snapshot{Percent: 0, Message: "idle", Ready: false}

// Tracker holds the current progress snapshot. One writer (the batch
// service) overwrites it; any number of subscribers poll it. A subscriber
// that connects after completion immediately observes Ready=true.
type Tracker struct {
	mu       sync.RWMutex
	current  Snapshot
	interval time.Duration
}

// NewTracker creates a Tracker in the idle state.
func NewTracker() *Tracker {
	return &Tracker{
		current:  idleSnapshot,
		interval: DefaultProgressInterval,
	}
}

// Set overwrites the current snapshot.
func (t *Tracker) Set(s Snapshot) {
	t.mu.Lock()
	t.current = s
	t.mu.Unlock()
}

// Current returns the latest snapshot.
func (t *Tracker) Current() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Reset returns the tracker to the idle state.
func (t *Tracker) Reset() {
	t.Set(idleSnapshot)
}

// Subscribe streams the current snapshot on a fixed interval until ctx is
// done. The first snapshot is delivered immediately. Slow receivers skip
// intermediate values rather than queueing them; the stream eventually
// reflects the latest state.
func (t *Tracker) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	go func() {
		defer close(ch)

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case ch <- t.Current():
			default:
				// Receiver still holds the previous value; drop this tick.
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return ch
}
