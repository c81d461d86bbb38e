package live

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/JustGoscha/zentest/internal/types"
)

func TestBroadcasterDeliversPublishedEventToConnectedClient(t *testing.T) {
	b := NewBroadcaster()
	go b.Run()
	defer b.Stop()

	server := httptest.NewServer(b)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the register message time to land before publishing.
	time.Sleep(20 * time.Millisecond)

	b.Publish(types.LiveEvent{Kind: types.LiveEventStep, Suite: "checkout", Test: "adds item"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if !strings.Contains(string(message), "checkout") || !strings.Contains(string(message), "adds item") {
		t.Fatalf("unexpected message: %s", message)
	}
}

func TestBroadcasterDropsClientOnDisconnect(t *testing.T) {
	b := NewBroadcaster()
	go b.Run()
	defer b.Stop()

	server := httptest.NewServer(b)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()

	time.Sleep(50 * time.Millisecond)
	// Publishing after the only client disconnected must not block or panic.
	done := make(chan struct{})
	go func() {
		b.Publish(types.LiveEvent{Kind: types.LiveEventResult})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked after client disconnected")
	}
}
