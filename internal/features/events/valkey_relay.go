package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"kanban/internal/config"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

const (
	channelPrefix  = "kanban:board:"
	publishTimeout = 5 * time.Second
	retryDelay     = 2 * time.Second
	inboxSize      = 1024
)

type relayedEvent struct {
	boardID uuid.UUID
	data    []byte
}

// ValkeyRelay publishes events to valkey and feeds every instance's Bus from
// a pattern subscription, so SSE clients see changes made on any instance.
type ValkeyRelay struct {
	client valkey.Client
	bus    *Bus
	logger *slog.Logger
}

func NewValkeyRelay(client valkey.Client, bus *Bus, logger *slog.Logger) *ValkeyRelay {
	return &ValkeyRelay{client: client, bus: bus, logger: logger}
}

// Publish falls back to local delivery when valkey cannot be reached.
func (r *ValkeyRelay) Publish(ctx context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("failed to encode board event", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	cmd := r.client.B().Publish().Channel(channelPrefix + event.BoardID.String()).Message(string(data)).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		r.logger.Warn("failed to publish board event, delivering locally",
			slog.String("error", err.Error()))
		r.bus.Deliver(event.BoardID, data)
	}
}

// Run blocks until ctx is done, resubscribing after connection errors.
// Received events are delivered from a separate goroutine so the valkey
// receive callback never waits on listeners.
func (r *ValkeyRelay) Run(ctx context.Context) {
	inbox := make(chan relayedEvent, inboxSize)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.deliverLoop(ctx, inbox)
	}()
	defer wg.Wait()

	for {
		err := r.client.Receive(ctx, r.client.B().Psubscribe().Pattern(channelPrefix+"*").Build(), r.enqueue(inbox))

		if ctx.Err() != nil {
			return
		}

		if err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("board event subscription dropped", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

// enqueue never blocks. When the inbox is full the event is dropped, cached
// snapshots still expire on their own.
func (r *ValkeyRelay) enqueue(inbox chan<- relayedEvent) func(valkey.PubSubMessage) {
	return func(msg valkey.PubSubMessage) {
		boardID, err := uuid.Parse(strings.TrimPrefix(msg.Channel, channelPrefix))
		if err != nil {
			return
		}

		select {
		case inbox <- relayedEvent{boardID: boardID, data: []byte(msg.Message)}:
		default:
			r.logger.Warn("board event inbox is full, dropping event", slog.String("boardId", boardID.String()))
		}
	}
}

func (r *ValkeyRelay) deliverLoop(ctx context.Context, inbox <-chan relayedEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-inbox:
			r.bus.Deliver(event.boardID, event.data)
		}
	}
}

// NewPublisher picks the relay when valkey is configured, the bus otherwise.
// The returned stop function ends the relay and closes the client.
func NewPublisher(
	ctx context.Context,
	env config.EnvVariables,
	client valkey.Client,
	bus *Bus,
	logger *slog.Logger,
) (Publisher, func()) {
	if !env.IsValkeyEnabled() || client == nil {
		return bus, func() {}
	}

	relay := NewValkeyRelay(client, bus, logger)
	relayCtx, cancel := context.WithCancel(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.Run(relayCtx)
	}()

	logger.Info("Board events are relayed through valkey")

	return relay, func() {
		cancel()
		<-done
	}
}
