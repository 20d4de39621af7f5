package wsconn

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client wraps a websocket with a buffered send queue drained by a single
// write pump. Frames written with WriteJSON before Start are guaranteed to
// precede every queued frame.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu      sync.Mutex
	closed  bool
	started bool
	done    chan struct{}
}

func New(id string, conn *websocket.Conn, bufferSize int) *Client {
	conn.SetReadLimit(maxMessageSize)

	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, bufferSize),
		done: make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send enqueues frame without blocking. It reports false when the queue is
// full or the client is closed.
func (c *Client) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// WriteJSON writes v directly to the socket. It must not be called after Start.
func (c *Client) WriteJSON(v any) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Start launches the write pump.
func (c *Client) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.started {
		return
	}
	c.started = true

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.writePump()
}

func (c *Client) ReadMessage() (int, []byte, error) {
	return c.conn.ReadMessage()
}

// Close stops accepting frames. A started write pump flushes what is queued,
// sends a close frame and closes the socket; otherwise the socket is closed
// immediately.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)

	if !c.started {
		c.conn.Close()
		close(c.done)
	}
}

// Terminate closes the underlying socket right away, which unblocks a pending
// ReadMessage.
func (c *Client) Terminate() {
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
		time.Now().Add(time.Second),
	)
	c.conn.Close()
}

// Done is closed once the write pump has exited and the socket is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
