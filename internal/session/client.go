package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"codecollab/internal/metrics"
	"codecollab/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one live socket. Outbound frames go through a bounded queue that
// WritePump drains, so Send never blocks the caller.
type Client struct {
	ID     string
	Conn   *websocket.Conn
	mu     sync.Mutex
	send   chan models.ServerFrame
	closed bool
	hook   func(models.ServerFrame)
}

func NewClient(conn *websocket.Conn, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		ID:   uuid.NewString(),
		Conn: conn,
		send: make(chan models.ServerFrame, buffer),
	}
}

// SetSendHook replaces the socket writer (used in tests).
func (c *Client) SetSendHook(fn func(models.ServerFrame)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

// Send queues frame for delivery and reports whether it was accepted. A full
// queue or a closed client drops the frame.
func (c *Client) Send(frame models.ServerFrame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(frame)
		return true
	}
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		metrics.FramesDropped.Inc()
		return false
	}
}

// WritePump writes queued frames and keepalive pings until the client is
// closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case frame, ok := <-c.send:
			if c.Conn == nil {
				if !ok {
					return
				}
				continue
			}
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			if c.Conn == nil {
				continue
			}
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// PrepareRead installs the read limit and pong-driven deadline on the socket.
func (c *Client) PrepareRead(maxMessageBytes int64) {
	if c.Conn == nil {
		return
	}
	if maxMessageBytes > 0 {
		c.Conn.SetReadLimit(maxMessageBytes)
	}
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// Close stops accepting frames and lets WritePump finish.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
