package tracking

import (
	"sync"
	"time"

	"endflow/internal/models"
)

const (
	// DefaultQueueLimit caps pending events per visitor. The oldest event
	// is dropped when the cap is reached.
	DefaultQueueLimit = 32

	// DefaultQueueRetention is how long a pending event waits for a
	// consent decision before it is discarded.
	DefaultQueueRetention = 30 * time.Minute
)

type pendingEvent struct {
	event    models.Event
	queuedAt time.Time
}

// pendingQueue holds events of undecided visitors until they decide.
type pendingQueue struct {
	mu        sync.Mutex
	visitors  map[string][]pendingEvent
	limit     int
	retention time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// newPendingQueue creates a queue and starts a background goroutine that
// discards expired events. The queue holds at least one event per visitor.
func newPendingQueue(limit int, retention time.Duration) *pendingQueue {
	if limit < 1 {
		limit = 1
	}
	q := &pendingQueue{
		visitors:  make(map[string][]pendingEvent),
		limit:     limit,
		retention: retention,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				q.cleanup()
			case <-q.stopCh:
				return
			}
		}
	}()

	return q
}

// Stop terminates the background cleanup goroutine.
func (q *pendingQueue) Stop() {
	q.stopOnce.Do(func() { close(q.stopCh) })
}

// push appends e for the visitor and reports whether an older event had
// to be dropped to make room.
func (q *pendingQueue) push(visitorID string, e models.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.live(q.visitors[visitorID])
	dropped := false
	if len(items) >= q.limit {
		items = items[len(items)-q.limit+1:]
		dropped = true
	}
	q.visitors[visitorID] = append(items, pendingEvent{event: e, queuedAt: q.now()})
	return dropped
}

// drain removes and returns the visitor's unexpired events in order.
func (q *pendingQueue) drain(visitorID string) []models.Event {
	q.mu.Lock()
	items := q.live(q.visitors[visitorID])
	delete(q.visitors, visitorID)
	q.mu.Unlock()

	events := make([]models.Event, len(items))
	for i, it := range items {
		events[i] = it.event
	}
	return events
}

// size returns the number of events waiting for the visitor.
func (q *pendingQueue) size(visitorID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.live(q.visitors[visitorID]))
}

// live filters out expired events. Callers hold q.mu.
func (q *pendingQueue) live(items []pendingEvent) []pendingEvent {
	cutoff := q.now().Add(-q.retention)
	valid := items[:0]
	for _, it := range items {
		if it.queuedAt.After(cutoff) {
			valid = append(valid, it)
		}
	}
	return valid
}

// cleanup removes visitors whose events have all expired.
func (q *pendingQueue) cleanup() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for id, items := range q.visitors {
		if live := q.live(items); len(live) == 0 {
			delete(q.visitors, id)
		} else {
			q.visitors[id] = live
		}
	}
}
