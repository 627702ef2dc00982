package events

import (
	"context"
	"sync"
)

// MemoryLog keeps the most recent events in a bounded ring.
type MemoryLog struct {
	mu     sync.RWMutex
	cap    int
	events []Event
	next   int
	full   bool
}

// NewMemoryLog returns a log retaining at most capacity events.
func NewMemoryLog(capacity int) *MemoryLog {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryLog{cap: capacity, events: make([]Event, capacity)}
}

// Append implements EventStore.
func (l *MemoryLog) Append(_ context.Context, event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events[l.next] = event
	l.next = (l.next + 1) % l.cap
	if l.next == 0 {
		l.full = true
	}
	return nil
}

// Recent returns up to n events, newest first. n <= 0 returns all retained events.
func (l *MemoryLog) Recent(n int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	size := l.next
	if l.full {
		size = l.cap
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]Event, 0, n)
	for i := 1; i <= n; i++ {
		idx := (l.next - i + l.cap) % l.cap
		out = append(out, l.events[idx])
	}
	return out
}

// ForAggregate returns the retained events for aggregateID, newest first.
func (l *MemoryLog) ForAggregate(aggregateID string) []Event {
	all := l.Recent(0)
	out := make([]Event, 0, len(all))
	for _, ev := range all {
		if ev.AggregateID == aggregateID {
			out = append(out, ev)
		}
	}
	return out
}
