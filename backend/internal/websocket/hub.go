package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/user/tradedesk/backend/internal/ticker"
)

// Client represents a single WebSocket client connection.
type Client struct {
	Conn   *websocket.Conn
	UserID uuid.UUID // identifies the authenticated owner; zero for public feeds
	Send   chan []byte
}

type directMessage struct {
	userID  uuid.UUID
	payload []byte
}

// Hub manages WebSocket clients. Price updates are broadcast to every
// client; notification events are delivered only to the clients of the
// addressed user.
type Hub struct {
	clients    map[*Client]bool
	byUser     map[uuid.UUID]map[*Client]bool
	broadcast  chan []byte
	direct     chan directMessage
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

var GlobalHub *Hub

// NewHub creates and initializes a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byUser:     make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		direct:     make(chan directMessage, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run starts the Hub's event loop.
func (h *Hub) Run() {
	log.Println("Starting WebSocket Hub...")
	go h.listenToPriceUpdates()

	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			if client.UserID != uuid.Nil {
				if h.byUser[client.UserID] == nil {
					h.byUser[client.UserID] = make(map[*Client]bool)
				}
				h.byUser[client.UserID][client] = true
			}
			h.mu.Unlock()
			log.Printf("Client registered: %s", client.Conn.RemoteAddr())

		case client := <-h.Unregister:
			h.mu.Lock()
			h.removeClientLocked(client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				h.trySendLocked(client, message)
			}
			h.mu.Unlock()

		case msg := <-h.direct:
			h.mu.Lock()
			for client := range h.byUser[msg.userID] {
				h.trySendLocked(client, msg.payload)
			}
			h.mu.Unlock()
		}
	}
}

// trySendLocked enqueues a message, dropping the client if its buffer
// is full. Caller holds the write lock.
func (h *Hub) trySendLocked(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		log.Printf("Client send buffer full, closing connection: %s", client.Conn.RemoteAddr())
		h.removeClientLocked(client)
	}
}

func (h *Hub) removeClientLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if set := h.byUser[client.UserID]; set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(h.byUser, client.UserID)
		}
	}
	close(client.Send)
	log.Printf("Client unregistered: %s", client.Conn.RemoteAddr())
}

// SendToUser delivers a payload to every live connection of one user.
// Non-blocking: if the hub is saturated the message is dropped (the
// inbox row is the durable copy).
func (h *Hub) SendToUser(userID uuid.UUID, payload []byte) {
	select {
	case h.direct <- directMessage{userID: userID, payload: payload}:
	default:
		log.Printf("Hub direct channel full, dropping message for user %s", userID)
	}
}

// listenToPriceUpdates forwards simulated market quotes to all clients.
func (h *Hub) listenToPriceUpdates() {
	log.Println("Hub listening for price updates...")
	for update := range ticker.PriceUpdates {
		msgBytes, err := json.Marshal(update)
		if err != nil {
			log.Printf("Error marshalling price update: %v", err)
			continue
		}
		h.broadcast <- msgBytes
	}
}

// InitializeGlobalHub creates and runs the global Hub instance.
func InitializeGlobalHub() {
	GlobalHub = NewHub()
	go GlobalHub.Run()
}
