package client

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// QueuedEvent is one outbound frame captured while the connection was down.
type QueuedEvent struct {
	Event    string          `json:"event"`
	Payload  json.RawMessage `json:"payload"`
	QueuedAt time.Time       `json:"queued_at"`
}

// OfflineQueue buffers outbound events while disconnected and replays them
// in FIFO order on reconnect. The queue is cleared before the replay starts,
// so an event that fails mid-flush is re-queued rather than duplicated.
// With a path it survives restarts as a JSON file.
type OfflineQueue struct {
	mu       sync.Mutex
	events   []QueuedEvent
	flushing bool
	path     string // empty means memory-only
}

// NewOfflineQueue opens the queue, loading any events a previous run left
// behind. An unreadable or corrupt file starts the queue empty.
func NewOfflineQueue(path string) *OfflineQueue {
	q := &OfflineQueue{path: path}
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			_ = json.Unmarshal(data, &q.events)
		}
	}
	return q
}

func (q *OfflineQueue) Enqueue(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, QueuedEvent{Event: event, Payload: data, QueuedAt: time.Now()})
	q.persistLocked()
	return nil
}

func (q *OfflineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Flush drains the queue through send, oldest first. The snapshot is taken
// and the queue emptied before the first send, so sends that enqueue again
// (a connection dropping mid-flush) cannot loop forever. A second Flush
// while one is running is a no-op.
func (q *OfflineQueue) Flush(send func(event string, payload json.RawMessage) error) error {
	q.mu.Lock()
	if q.flushing || len(q.events) == 0 {
		q.mu.Unlock()
		return nil
	}
	q.flushing = true
	pending := q.events
	q.events = nil
	q.persistLocked()
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.flushing = false
		q.mu.Unlock()
	}()

	for i, evt := range pending {
		if err := send(evt.Event, evt.Payload); err != nil {
			// Put the unsent tail back, ahead of anything queued meanwhile.
			q.mu.Lock()
			q.events = append(pending[i:], q.events...)
			q.persistLocked()
			q.mu.Unlock()
			return err
		}
	}
	return nil
}

// Snapshot returns a copy of the pending events, oldest first.
func (q *OfflineQueue) Snapshot() []QueuedEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]QueuedEvent, len(q.events))
	copy(out, q.events)
	return out
}

// persistLocked writes the queue file; callers hold q.mu. Write failures are
// ignored: the in-memory queue still works, durability is best effort.
func (q *OfflineQueue) persistLocked() {
	if q.path == "" {
		return
	}
	data, err := json.Marshal(q.events)
	if err != nil {
		return
	}
	_ = os.WriteFile(q.path, data, 0o600)
}
