package websocket

import (
	"context"
	"time"

	"care-advisor-be/pkg/stage"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	inboxSize      = 16
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	SessionID string

	// Buffered channel of outbound messages.
	Send chan []byte

	// inbound frames waiting for the session's previous message to finish
	inbox chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID string) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		SessionID: sessionID,
		Send:      make(chan []byte, 256),
		inbox:     make(chan []byte, inboxSize),
	}
}

// readPump keeps reading while a slow message is being handled so pongs
// still extend the read deadline.
func (c *Client) readPump(cancel context.CancelFunc) {
	defer func() {
		close(c.inbox)
		cancel()
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{"session_id": c.SessionID, "error": err.Error()})
			}
			return
		}
		c.enqueue(message)
	}
}

// enqueue hands message to processLoop without ever blocking the reader. A
// session that has fallen this far behind gets an error for the extra frame.
func (c *Client) enqueue(message []byte) {
	select {
	case c.inbox <- message:
	default:
		c.Hub.logger.Warn("Client", "Inbox full, rejecting message", map[string]interface{}{"session_id": c.SessionID})
		c.Hub.Deliver(c, stage.Encode(stage.NewError(stage.CodeValidation, "too many pending messages, retry after the current reply")))
	}
}

// processLoop handles inbound frames in arrival order.
func (c *Client) processLoop(ctx context.Context) {
	for message := range c.inbox {
		if ctx.Err() != nil {
			continue // peer is gone, drain
		}
		if reply, ok := c.Hub.routeFrom(ctx, c, message); ok {
			c.Hub.Deliver(c, reply)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
// Each reply goes out as its own frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
