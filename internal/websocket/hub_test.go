package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubClient(h *Hub, userID uint, connID string) *Client {
	return &Client{
		UserID:       userID,
		ConnectionID: connID,
		hub:          h,
		send:         make(chan []byte, clientBufferSize),
	}
}

func TestHub_RegisterAndDetach(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Shutdown()

	c1 := newHubClient(h, 5, "c1")
	c2 := newHubClient(h, 5, "c2")
	h.register <- c1
	h.register <- c2

	require.Eventually(t, func() bool { return h.ConnectionCount() == 2 },
		time.Second, 5*time.Millisecond)

	h.detach(c1)
	require.Eventually(t, func() bool { return h.ConnectionCount() == 1 },
		time.Second, 5*time.Millisecond)

	// Канал снятого соединения закрыт — writePump завершится
	_, ok := <-c1.send
	assert.False(t, ok)
}

func TestHub_SendToUser_DeliversToAllConnections(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Shutdown()

	c1 := newHubClient(h, 5, "c1")
	c2 := newHubClient(h, 5, "c2")
	other := newHubClient(h, 6, "c3")
	h.register <- c1
	h.register <- c2
	h.register <- other

	require.Eventually(t, func() bool { return h.ConnectionCount() == 3 },
		time.Second, 5*time.Millisecond)

	h.SendToUser(5, Event{Type: EventSessionTick, Data: map[string]int{"remaining_seconds": 30}})

	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.send:
			assert.Contains(t, string(msg), EventSessionTick)
		default:
			t.Fatalf("соединение %s не получило событие", c.ConnectionID)
		}
	}
	assert.Empty(t, other.send)
}

func TestHub_DetachAfterShutdown_DoesNotBlock(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := newHubClient(h, 5, "c1")
	h.register <- client

	require.Eventually(t, func() bool { return h.ConnectionCount() == 1 },
		time.Second, 5*time.Millisecond)

	h.Shutdown()

	// После остановки цикл Run больше не читает unregister;
	// снятие соединения все равно должно завершаться
	done := make(chan struct{})
	go func() {
		h.detach(client)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("снятие соединения зависло после остановки hub")
	}
}
