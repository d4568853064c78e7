// Package kb provides in-memory state shared across a scanning run: here, a
// store of lattice-scan checkpoints so a long batch job can resume after a
// restart instead of rescanning from the origin.
package kb

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Event is published to subscribers whenever a checkpoint changes.
type Event struct {
	ScanID string
	Index  []int
}

// CheckpointStore is an in-memory, thread-safe store of lattice-scan
// checkpoints, keyed by scan ID. Pair it with core.ScanState's Index and
// SetIndex methods: periodically Save the current index, and on restart
// Load it back and hand it to SetIndex before resuming Advance calls.
type CheckpointStore struct {
	mu   sync.RWMutex
	byID map[string][]int
	subs []func(Event)
}

// NewCheckpointStore returns an empty store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{byID: make(map[string][]int)}
}

// NewScanID returns a fresh random identifier suitable for keying a
// checkpoint.
func NewScanID() string { return uuid.NewString() }

// Save records idx as the latest checkpoint for scanID and notifies
// subscribers. The index is copied for the store and copied again for the
// published Event, so neither the caller's slice nor a subscriber mutating
// its own Event.Index can affect the other.
func (c *CheckpointStore) Save(scanID string, idx []int) error {
	if scanID == "" {
		return fmt.Errorf("checkpoint: empty scan ID")
	}
	saved := append([]int(nil), idx...)

	c.mu.Lock()
	c.byID[scanID] = saved
	subs := append([]func(Event){}, c.subs...)
	c.mu.Unlock()

	event := Event{ScanID: scanID, Index: append([]int(nil), saved...)}
	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// Load returns the most recently saved checkpoint for scanID, if any.
func (c *CheckpointStore) Load(scanID string) ([]int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byID[scanID]
	if !ok {
		return nil, false
	}
	return append([]int(nil), idx...), true
}

// Delete removes scanID's checkpoint, if present.
func (c *CheckpointStore) Delete(scanID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, scanID)
}

// Subscribe registers fn to be called on every future Save, across all scan
// IDs. The returned function removes the subscription.
func (c *CheckpointStore) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
	idx := len(c.subs) - 1

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < 0 || idx >= len(c.subs) {
			return
		}
		c.subs[idx] = func(Event) {}
		idx = -1
	}
}
