package feed

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Message is the payload pushed to every subscriber.
type Message struct {
	Jackpot int64 `json:"jackpot"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// Hub fans committed jackpot values out to websocket subscribers. A slow
// subscriber only ever sees the newest value.
type Hub struct {
	current func() int64

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan int64
	done chan struct{}
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// offer replaces any pending value with v.
func (c *client) offer(v int64) {
	for {
		select {
		case c.send <- v:
			return
		default:
		}

		select {
		case <-c.send:
		default:
		}
	}
}

// NewHub returns a hub that greets new subscribers with current().
func NewHub(current func() int64) *Hub {
	return &Hub{
		current: current,
		clients: make(map[*client]struct{}),
	}
}

// JackpotChanged broadcasts amount without blocking the caller. Calls must be
// made in commit order.
func (h *Hub) JackpotChanged(amount int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.offer(amount)
	}
}

// Subscribers reports the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	for c := range h.clients {
		c.stop()
		delete(h.clients, c)
	}

	return nil
}

// ServeWS upgrades the request and streams jackpot updates until the peer
// goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)

		return
	}

	c := &client{
		conn: conn,
		send: make(chan int64, 1),
		done: make(chan struct{}),
	}

	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		_ = conn.Close()

		return
	}

	go h.readLoop(c)

	h.writeLoop(c)
}

// register greets c with the current value under the same lock broadcasts
// take, so a newer broadcast is never overwritten by the greeting.
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	h.clients[c] = struct{}{}
	c.offer(h.current())

	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, c)
}

// readLoop drains control frames and notices when the peer disconnects.
func (h *Hub) readLoop(c *client) {
	defer c.stop()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read", "error", err)
			}

			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		h.unregister(c)
		c.stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case v := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			err := c.conn.WriteJSON(Message{Jackpot: v})
			if err != nil {
				slog.Debug("websocket write", "error", err)

				return
			}
		case <-ticker.C:
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))

			return
		}
	}
}
