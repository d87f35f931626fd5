package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kanban/internal/storage/memstore"
	"kanban/internal/storage/storagetest"
	"kanban/internal/util/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"
)

func Test_Publish_DeliversOnlyToBoardSubscribers(t *testing.T) {
	bus := NewBus(logger.GetLogger())
	boardID, otherBoardID := uuid.New(), uuid.New()

	messages, cancel := bus.Subscribe(boardID)
	defer cancel()
	otherMessages, otherCancel := bus.Subscribe(otherBoardID)
	defer otherCancel()

	bus.Publish(context.Background(), Event{Type: TypeCreated, Entity: "task", BoardID: boardID})

	select {
	case msg := <-messages:
		var event Event
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, TypeCreated, event.Type)
		assert.Equal(t, boardID, event.BoardID)
	case <-time.After(time.Second):
		t.Fatal("expected event")
	}

	assert.Empty(t, otherMessages)
}

func Test_Publish_WhenSubscriberSlow_DropsWithoutBlocking(t *testing.T) {
	bus := NewBus(logger.GetLogger())
	boardID := uuid.New()

	messages, cancel := bus.Subscribe(boardID)
	defer cancel()

	for range subscriberBuffer * 3 {
		bus.Publish(context.Background(), Event{Type: TypeUpdated, BoardID: boardID})
	}

	assert.Len(t, messages, subscriberBuffer)
}

func Test_Subscribe_CancelTwice_IsSafe(t *testing.T) {
	bus := NewBus(logger.GetLogger())
	boardID := uuid.New()

	_, cancel := bus.Subscribe(boardID)
	assert.Equal(t, 1, bus.SubscriberCount(boardID))

	cancel()
	cancel()
	assert.Equal(t, 0, bus.SubscriberCount(boardID))
}

func Test_OnBoardChanged_RunsForEveryEvent(t *testing.T) {
	bus := NewBus(logger.GetLogger())
	boardID := uuid.New()

	var changed []uuid.UUID
	bus.OnBoardChanged(func(id uuid.UUID) { changed = append(changed, id) })

	bus.Publish(context.Background(), Event{Type: TypeDeleted, BoardID: boardID})
	assert.Equal(t, []uuid.UUID{boardID}, changed)
}

func Test_StreamBoardEvents_WhenBoardMissing_ReturnsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewEventsController(NewBus(logger.GetLogger()), memstore.New().Boards()).RegisterRoutes(router.Group("/api/v1"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/boards/"+uuid.New().String()+"/events", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func Test_StreamBoardEvents_WritesPublishedEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := memstore.New()
	board := storagetest.CreateBoard(t, store, uuid.New(), "Live")
	bus := NewBus(logger.GetLogger())

	router := gin.New()
	NewEventsController(bus, store.Boards()).RegisterRoutes(router.Group("/api/v1"))

	ctx, cancel := context.WithCancel(context.Background())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/boards/"+board.ID.String()+"/events", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		router.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool { return bus.SubscriberCount(board.ID) == 1 }, time.Second, 5*time.Millisecond)

	bus.Publish(context.Background(), Event{Type: TypeMoved, Entity: "task", BoardID: board.ID})

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, ": connected"))
	assert.Contains(t, body, `"type":"moved"`)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
}

func Test_OnBoardChanged_WhenListenerSubscribes_DoesNotDeadlock(t *testing.T) {
	bus := NewBus(logger.GetLogger())
	boardID := uuid.New()

	bus.OnBoardChanged(func(id uuid.UUID) {
		_, cancel := bus.Subscribe(id)
		cancel()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.Publish(context.Background(), Event{Type: TypeUpdated, BoardID: boardID})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener blocked on the bus lock")
	}
}

func Test_Close_EndsOpenSubscriptions(t *testing.T) {
	bus := NewBus(logger.GetLogger())
	boardID := uuid.New()

	messages, cancel := bus.Subscribe(boardID)
	bus.Close()

	_, ok := <-messages
	assert.False(t, ok)
	assert.Equal(t, 0, bus.SubscriberCount(boardID))

	cancel()

	late, lateCancel := bus.Subscribe(boardID)
	defer lateCancel()
	_, ok = <-late
	assert.False(t, ok)
}

func Test_StreamBoardEvents_WhenBusClosed_Returns(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := memstore.New()
	board := storagetest.CreateBoard(t, store, uuid.New(), "Live")
	bus := NewBus(logger.GetLogger())

	router := gin.New()
	NewEventsController(bus, store.Boards()).RegisterRoutes(router.Group("/api/v1"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/boards/"+board.ID.String()+"/events", nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		router.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool { return bus.SubscriberCount(board.ID) == 1 }, time.Second, 5*time.Millisecond)
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("event stream kept running after the bus closed")
	}
}

func Test_RelayEnqueue_WhenInboxFull_DropsWithoutBlocking(t *testing.T) {
	bus := NewBus(logger.GetLogger())
	relay := NewValkeyRelay(nil, bus, logger.GetLogger())
	boardID := uuid.New()

	inbox := make(chan relayedEvent, 1)
	handle := relay.enqueue(inbox)

	msg := valkey.PubSubMessage{Channel: channelPrefix + boardID.String(), Message: `{"type":"updated"}`}
	handle(msg)
	handle(msg)
	handle(valkey.PubSubMessage{Channel: channelPrefix + "not-a-board", Message: "{}"})

	require.Len(t, inbox, 1)

	messages, cancel := bus.Subscribe(boardID)
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.deliverLoop(ctx, inbox)
	}()

	select {
	case data := <-messages:
		assert.JSONEq(t, `{"type":"updated"}`, string(data))
	case <-time.After(time.Second):
		t.Fatal("expected the relayed event")
	}

	stop()
	<-done
}
