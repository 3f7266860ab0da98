package feed

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
)

// client is one spectator connection
type client struct {
	conn      *websocket.Conn
	remote    string
	send      chan *Message
	done      chan struct{}
	clock     quartz.Clock
	logger    *log.Logger
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, clock quartz.Clock, logger *log.Logger) *client {
	return &client{
		conn:   conn,
		remote: conn.RemoteAddr().String(),
		send:   make(chan *Message, sendBuffer),
		done:   make(chan struct{}),
		clock:  clock,
		logger: logger,
	}
}

// enqueue reports false when the client's buffer is full
func (c *client) enqueue(msg *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.done)
		c.mu.Unlock()
		_ = c.conn.Close()
	})
}

// readPump only watches for pongs and disconnects
func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("Spectator read error", "remote", c.remote, "error", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := c.clock.NewTicker(pingPeriod, "feed", "ping")
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("Failed to write to spectator", "remote", c.remote, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
