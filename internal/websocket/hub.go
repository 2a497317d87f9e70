package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"codeduel/internal/models"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Heartbeat interval for leaderboard version updates. Clients only
	// refetch when the version changes, max once per heartbeat.
	versionHeartbeatInterval = 2 * time.Second
)

// Client represents a WebSocket client connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// VersionSource yields the current leaderboard version number
type VersionSource interface {
	GetVersion(ctx context.Context) (int64, error)
}

// Hub maintains the set of active clients. It pushes two kinds of messages:
// match lifecycle events published by the services and leaderboard version
// heartbeats polled from Redis.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	events     chan models.MatchEvent
	cache      VersionSource

	mu sync.RWMutex

	// Last known leaderboard version for change detection
	lastVersion int64
}

// VersionUpdate represents the version heartbeat message
type VersionUpdate struct {
	Type    string `json:"type"`
	Version int64  `json:"version"`
}

// NewHub creates a new WebSocket hub
func NewHub(cache VersionSource) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan models.MatchEvent, 64),
		clients:    make(map[*Client]bool),
		cache:      cache,
	}
}

// PublishMatch queues a match event for broadcast. Never blocks; events are
// dropped when the hub cannot keep up.
func (h *Hub) PublishMatch(evt models.MatchEvent) {
	select {
	case h.events <- evt:
	default:
		log.Printf("⚠️ Event buffer full, dropping %s for match %s", evt.Type, evt.MatchID)
	}
}

// Run starts the WebSocket hub
func (h *Hub) Run(ctx context.Context) {
	log.Println("🚀 WebSocket Hub started")

	versionTicker := time.NewTicker(versionHeartbeatInterval)
	defer versionTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("✅ Client connected (Total: %d)", len(h.clients))

			h.sendInitialVersion(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("❌ Client disconnected (Total: %d)", len(h.clients))

		case evt := <-h.events:
			h.broadcastEvent(evt)

		case <-versionTicker.C:
			h.checkAndBroadcastVersion(ctx)

		case <-ctx.Done():
			log.Println("🛑 WebSocket Hub shutting down")
			return
		}
	}
}

// broadcastEvent sends a match event to all connected clients
func (h *Hub) broadcastEvent(evt models.MatchEvent) {
	message, err := json.Marshal(evt)
	if err != nil {
		log.Printf("❌ Failed to marshal match event: %v", err)
		return
	}
	h.broadcast(message)
}

// checkAndBroadcastVersion broadcasts a heartbeat when the leaderboard
// version moved since the last tick
func (h *Hub) checkAndBroadcastVersion(ctx context.Context) {
	currentVersion, err := h.cache.GetVersion(ctx)
	if err != nil {
		log.Printf("❌ Failed to get leaderboard version: %v", err)
		return
	}

	if currentVersion == h.lastVersion {
		return
	}
	h.lastVersion = currentVersion

	update := VersionUpdate{
		Type:    "VERSION_UPDATE",
		Version: currentVersion,
	}

	message, err := json.Marshal(update)
	if err != nil {
		log.Printf("❌ Failed to marshal version update: %v", err)
		return
	}

	h.broadcast(message)
}

// broadcast fans a message out to every client, skipping slow ones
func (h *Hub) broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			log.Printf("⚠️ Client send buffer full, skipping")
		}
	}
}

// sendInitialVersion sends the current version to a newly connected client
func (h *Hub) sendInitialVersion(client *Client) {
	ctx := context.Background()

	currentVersion, err := h.cache.GetVersion(ctx)
	if err != nil {
		log.Printf("❌ Failed to get initial version: %v", err)
		return
	}

	if h.lastVersion == 0 {
		h.lastVersion = currentVersion
	}

	update := VersionUpdate{
		Type:    "VERSION_UPDATE",
		Version: currentVersion,
	}

	message, err := json.Marshal(update)
	if err != nil {
		log.Printf("❌ Failed to marshal initial version: %v", err)
		return
	}

	h.mu.RLock()
	_, exists := h.clients[client]
	h.mu.RUnlock()

	if !exists {
		return
	}

	// Never park the hub loop on one client; the next heartbeat catches
	// them up anyway
	select {
	case client.send <- message:
	default:
		log.Println("⚠️ Client send buffer full, skipping initial version")
	}
}

// GetClientCount returns the current number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	// Browser WebSockets handle ping/pong at the protocol level, so no read
	// deadline here
	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️ WebSocket unexpected close: %v", err)
			}
			break
		}
		// Clients are not expected to send messages; ignore anything received
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))

		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		// Fold queued messages into the same frame
		n := len(c.send)
		for i := 0; i < n; i++ {
			w.Write([]byte{'\n'})
			w.Write(<-c.send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}

	// The hub closed the channel
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ServeWS handles WebSocket requests from clients
func ServeWS(hub *Hub, conn *websocket.Conn) {
	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	client.hub.register <- client

	go client.writePump()

	// Read pump blocks until disconnect
	client.readPump()
}
