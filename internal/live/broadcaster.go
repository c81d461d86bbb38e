// Package live serves a websocket feed of LiveEvents as a suite runs, for
// the --live flag's browser-based viewer. The AgenticDriver and Runner
// never read this feed back; it is purely observational.
package live

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/JustGoscha/zentest/internal/logging"
	"github.com/JustGoscha/zentest/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) readPump(unregister chan<- *client) {
	defer func() {
		unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Broadcaster fans LiveEvents out to every connected viewer. Callers
// obtain one per run and call Publish as the AgenticDriver/Runner emit
// events; ServeHTTP is registered as the websocket upgrade endpoint.
type Broadcaster struct {
	mu         sync.RWMutex
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

// NewBroadcaster returns a Broadcaster; call Run in a goroutine before
// registering any clients.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run drives the broadcaster's event loop until Stop is called.
func (b *Broadcaster) Run() {
	for {
		select {
		case <-b.done:
			b.mu.Lock()
			for c := range b.clients {
				close(c.send)
				delete(b.clients, c)
			}
			b.mu.Unlock()
			return
		case c := <-b.register:
			b.mu.Lock()
			b.clients[c] = true
			b.mu.Unlock()
		case c := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[c]; ok {
				delete(b.clients, c)
				close(c.send)
			}
			b.mu.Unlock()
		case message := <-b.broadcast:
			b.mu.RLock()
			for c := range b.clients {
				select {
				case c.send <- message:
				default:
					close(c.send)
					delete(b.clients, c)
				}
			}
			b.mu.RUnlock()
		}
	}
}

// Stop terminates Run and disconnects every client.
func (b *Broadcaster) Stop() {
	close(b.done)
}

// Publish encodes event and fans it out to every connected client.
func (b *Broadcaster) Publish(event types.LiveEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logging.GetLogger().Error("marshal live event: %v", err)
		return
	}
	select {
	case b.broadcast <- data:
	case <-b.done:
	}
}

// ServeHTTP upgrades the connection to a websocket and streams published
// events to it until the client disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.GetLogger().Error("upgrade websocket: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 64)}
	b.register <- c

	go c.writePump()
	go c.readPump(b.unregister)
}
