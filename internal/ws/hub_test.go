package ws

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/driftchat/drift/internal/chat"
	"github.com/driftchat/drift/internal/models"
)

func newTestClient() *Client {
	return &Client{
		send:    make(chan []byte, 16),
		done:    make(chan struct{}),
		session: chat.NewSession(nil, models.User{ID: uuid.New(), Username: "u"}, zap.NewNop()),
		logger:  zap.NewNop(),
	}
}

func waitDropped(t *testing.T, c *Client) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("client was not dropped")
	}
}

func TestHubUnregisterDoesNotBreakPush(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Shutdown()

	client := newTestClient()
	client.hub = hub
	hub.register <- client
	hub.unregister <- client
	waitDropped(t, client)

	// The inbox pump can still be draining buffered bridge events after
	// the hub has dropped the client; pushing frames past that point
	// must stay safe.
	for i := 0; i < 32; i++ {
		client.push(frame{Type: "state"})
	}
}

func TestHubShutdownDropsEveryClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	stopped := make(chan struct{})
	go func() {
		hub.Run()
		close(stopped)
	}()

	a := newTestClient()
	b := newTestClient()
	hub.register <- a
	hub.register <- b

	hub.Shutdown()

	for _, c := range []*Client{a, b} {
		waitDropped(t, c)
		c.push(frame{Type: "state"})
	}

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub loop did not stop")
	}
}
