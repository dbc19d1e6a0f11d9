package handlers

import (
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/user/tradedesk/backend/internal/auth"
	ws "github.com/user/tradedesk/backend/internal/websocket"
)

// StreamWSEndpoint serves the combined WebSocket stream: price updates
// for everyone, plus per-user notification pushes when the connection
// carries a valid ?token= JWT. Fiber locals are not reachable from the
// upgraded connection, so the token rides on the query string.
func StreamWSEndpoint(c *websocket.Conn) {
	userID := uuid.Nil
	if token := c.Query("token"); token != "" {
		claims, err := auth.ValidateJWT(token)
		if err != nil {
			log.Printf("WebSocket auth failed for %s: %v", c.RemoteAddr(), err)
		} else {
			userID = claims.UserID
		}
	}

	client := &ws.Client{
		Conn:   c,
		UserID: userID,
		Send:   make(chan []byte, 256),
	}

	ws.GlobalHub.Register <- client

	go clientWritePump(client)
	go clientReadPump(client)

	log.Printf("WebSocket connection established: %s (user %s)", c.RemoteAddr(), userID)
	// The handler returns here; the pumps keep running.
}

// clientWritePump pumps messages from the hub to the websocket connection.
func clientWritePump(client *ws.Client) {
	defer func() {
		client.Conn.Close()
		log.Printf("Write pump stopped for %s", client.Conn.RemoteAddr())
	}()

	for message := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("Error writing message to %s: %v", client.Conn.RemoteAddr(), err)
			ws.GlobalHub.Unregister <- client
			return
		}
	}
	// Send channel closed by the hub; connection is being torn down.
}

// clientReadPump drains inbound frames and handles disconnects.
func clientReadPump(client *ws.Client) {
	defer func() {
		ws.GlobalHub.Unregister <- client
		client.Conn.Close()
		log.Printf("Read pump stopped for %s", client.Conn.RemoteAddr())
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Client disconnected unexpectedly %s: %v", client.Conn.RemoteAddr(), err)
			}
			break
		}
		// Clients don't send anything meaningful on this stream yet.
	}
}
