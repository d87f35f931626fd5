// Package events fans board changes out to live subscribers (SSE clients).
// Delivery is best effort: a subscriber that falls behind misses messages and
// is expected to refetch the board.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 16

type Type string

const (
	TypeCreated   Type = "created"
	TypeUpdated   Type = "updated"
	TypeDeleted   Type = "deleted"
	TypeMoved     Type = "moved"
	TypeReordered Type = "reordered"
)

type Event struct {
	Type     Type       `json:"type"`
	Entity   string     `json:"entity,omitempty"`
	BoardID  uuid.UUID  `json:"board_id"`
	ColumnID *uuid.UUID `json:"column_id,omitempty"`
	Payload  any        `json:"payload,omitempty"`
}

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Bus delivers events to subscribers in this process.
type Bus struct {
	mu        sync.RWMutex
	subs      map[uuid.UUID]map[chan []byte]struct{}
	listeners []func(boardID uuid.UUID)
	closed    bool

	logger *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subs:   make(map[uuid.UUID]map[chan []byte]struct{}),
		logger: logger,
	}
}

func (b *Bus) Subscribe(boardID uuid.UUID) (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}

	if b.subs[boardID] == nil {
		b.subs[boardID] = make(map[chan []byte]struct{})
	}
	b.subs[boardID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs, ok := b.subs[boardID]
		if !ok {
			return
		}

		if _, ok := subs[ch]; !ok {
			return
		}

		delete(subs, ch)
		if len(subs) == 0 {
			delete(b.subs, boardID)
		}
		close(ch)
	}

	return ch, cancel
}

// Close ends every open subscription so streaming handlers return. Later
// subscriptions start closed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for boardID, subs := range b.subs {
		for ch := range subs {
			close(ch)
		}
		delete(b.subs, boardID)
	}
}

// OnBoardChanged registers a callback run for every delivered event.
func (b *Bus) OnBoardChanged(listener func(boardID uuid.UUID)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = append(b.listeners, listener)
}

func (b *Bus) Publish(_ context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("failed to encode board event", slog.String("error", err.Error()))
		return
	}

	b.Deliver(event.BoardID, data)
}

// Deliver hands an already encoded event to local subscribers, then runs the
// change listeners outside the lock.
func (b *Bus) Deliver(boardID uuid.UUID, data []byte) {
	b.mu.RLock()
	for ch := range b.subs[boardID] {
		select {
		case ch <- data:
		default:
			// slow subscriber
		}
	}
	listeners := slices.Clone(b.listeners)
	b.mu.RUnlock()

	for _, listener := range listeners {
		listener(boardID)
	}
}

func (b *Bus) SubscriberCount(boardID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[boardID])
}

// Nop discards events. Used by commands that run without an HTTP server.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
