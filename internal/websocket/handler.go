package websocket

import (
	"context"

	"github.com/gofiber/websocket/v2"
)

// ServeWs runs one session over c until the peer goes away.
func ServeWs(hub *Hub, c *websocket.Conn, sessionID string) {
	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(hub, c, sessionID)
	hub.Register(ctx, client)

	done := make(chan struct{})
	go client.writePump()
	go func() {
		client.processLoop(ctx)
		close(done)
	}()
	client.readPump(cancel)

	<-done
	hub.Unregister(context.Background(), client)
}
