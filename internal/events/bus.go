// Package events is the in-process pub/sub feeding Server-Sent Events to
// open browser tabs.
package events

import (
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by the service.
const (
	TypeTranscriptCompleted = "transcript.completed"
	TypeTranscriptFailed    = "transcript.failed"
	TypeSavedCreated        = "saved.created"
	TypeSavedDeleted        = "saved.deleted"
	TypeSavedChanged        = "saved.changed" // external edit of the store file
)

// Event is one published event. ID is a monotonic sequence number used for
// SSE replay on reconnect.
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Bus distributes events to subscribers and keeps a ring of recent events
// for Last-Event-ID replay.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan Event
	nextSub     uint64
	seq         atomic.Uint64

	ringMu   sync.RWMutex
	ring     []Event
	ringSize int
	ringHead int
}

// NewBus creates a bus with the given replay ring size.
func NewBus(ringSize int) *Bus {
	return &Bus{
		subscribers: make(map[uint64]chan Event),
		ring:        make([]Event, ringSize),
		ringSize:    ringSize,
	}
}

// Subscribe registers a subscriber and returns its channel and a cancel
// function. Slow subscribers drop events rather than blocking publishers.
// Cancel closes the channel so consumers ranging over it terminate; it is
// safe to call more than once. Publishers send under the read lock and
// cancel closes under the write lock, so no send can race the close.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	ch := make(chan Event, 64)
	b.subscribers[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish assigns a sequence id and fans the event out.
func (b *Bus) Publish(eventType string, data any) Event {
	var raw json.RawMessage
	if data != nil {
		raw, _ = json.Marshal(data)
	}
	e := Event{
		ID:   strconv.FormatUint(b.seq.Add(1), 10),
		Type: eventType,
		Time: time.Now().UTC(),
		Data: raw,
	}

	b.ringMu.Lock()
	b.ring[b.ringHead] = e
	b.ringHead = (b.ringHead + 1) % b.ringSize
	b.ringMu.Unlock()

	b.mu.RLock()
	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
	b.mu.RUnlock()

	return e
}

// ReplaySince returns ring-buffered events newer than lastEventID, oldest
// first. An empty or unknown id yields nothing: the client is simply live
// from now on.
func (b *Bus) ReplaySince(lastEventID string) []Event {
	if lastEventID == "" {
		return nil
	}
	since, err := strconv.ParseUint(lastEventID, 10, 64)
	if err != nil {
		return nil
	}

	b.ringMu.RLock()
	defer b.ringMu.RUnlock()

	var out []Event
	for i := 0; i < b.ringSize; i++ {
		e := b.ring[(b.ringHead+i)%b.ringSize]
		if e.ID == "" {
			continue
		}
		id, _ := strconv.ParseUint(e.ID, 10, 64)
		if id > since {
			out = append(out, e)
		}
	}
	return out
}

// SubscriberCount reports the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
