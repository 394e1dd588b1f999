package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Client is one live connection with its role tag and outbound queue.
// The queue is drained by a single writer goroutine, so delivery to one
// target is FIFO in enqueue order.
type Client struct {
	id             string
	role           Role
	conversationID int64
	customerID     int64
	agentID        int64

	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewCustomerClient builds a connection bound to one conversation.
func NewCustomerClient(conn *websocket.Conn, customerID, conversationID int64, sendBuffer int) *Client {
	return &Client{
		id:             uuid.NewString(),
		role:           RoleCustomer,
		conversationID: conversationID,
		customerID:     customerID,
		conn:           conn,
		send:           make(chan []byte, bufferSize(sendBuffer)),
	}
}

// NewAgentClient builds a conversation-agnostic agent connection.
func NewAgentClient(conn *websocket.Conn, agentID int64, sendBuffer int) *Client {
	return &Client{
		id:      uuid.NewString(),
		role:    RoleAgent,
		agentID: agentID,
		conn:    conn,
		send:    make(chan []byte, bufferSize(sendBuffer)),
	}
}

func bufferSize(n int) int {
	if n <= 0 {
		return 256
	}
	return n
}

// enqueue places a payload on the outbound queue without blocking. It
// reports false when the buffer is full. Payloads arriving after the
// queue closed are dropped; the mutex keeps the send racing a concurrent
// closeSend off the closed channel.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return true
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// SendEvent marshals and enqueues an event for this connection only.
func (c *Client) SendEvent(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	c.enqueue(payload)
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// WritePump drains the outbound queue onto the socket and keeps the
// connection alive with pings. It returns when the queue closes or a write
// fails.
func (c *Client) WritePump(pingPeriod, writeTimeout time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
