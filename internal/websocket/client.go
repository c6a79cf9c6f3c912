package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client represents one dashboard connection.
type Client struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte // operation responses
	summary chan []byte // latest summary push, capacity one, overwrite

	channels map[string]bool
	mu       sync.RWMutex // protects channels map and conn writes
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:       uuid.New().String(),
		Conn:     conn,
		Send:     make(chan []byte, 64),
		summary:  make(chan []byte, 1),
		channels: make(map[string]bool),
	}
}

// Subscribe adds a channel to the client's subscriptions (hub internal)
func (c *Client) Subscribe(channel string) {
	c.mu.Lock()
	c.channels[channel] = true
	c.mu.Unlock()
}

// Unsubscribe removes a channel from the client's subscriptions (hub internal)
func (c *Client) Unsubscribe(channel string) {
	c.mu.Lock()
	delete(c.channels, channel)
	c.mu.Unlock()
}

// IsSubscribed checks if client is subscribed to a channel
func (c *Client) IsSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channels[channel]
}

// WriteLoop drains responses and summary pushes onto the connection.
func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.close()
			return
		case msg, ok := <-c.Send:
			if !ok {
				c.close()
				return
			}
			c.write(websocket.TextMessage, msg)
		case msg := <-c.summary:
			c.write(websocket.TextMessage, msg)
		case <-ticker.C:
			c.write(websocket.PingMessage, []byte("ping"))
		}
	}
}

func (c *Client) write(messageType int, msg []byte) {
	c.mu.Lock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_ = c.Conn.WriteMessage(messageType, msg)
	c.mu.Unlock()
}

func (c *Client) close() {
	c.mu.Lock()
	_ = c.Conn.Close()
	c.mu.Unlock()
}

// SendMessage queues an operation response (non-blocking, drop on full).
func (c *Client) SendMessage(msg []byte) {
	select {
	case c.Send <- msg:
	default:
		// Channel full, message dropped
	}
}

// SendSummary overwrites the client's pending summary with the newest value.
func (c *Client) SendSummary(msg []byte) {
	for {
		select {
		case c.summary <- msg:
			return
		default:
			select {
			case <-c.summary:
			default:
			}
		}
	}
}
