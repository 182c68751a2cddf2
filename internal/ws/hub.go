package ws

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/codepair/backend/internal/protocol"
)

// MessageHandler consumes inbound frames and the disconnect signal.
// The event relay implements it.
type MessageHandler interface {
	HandleMessage(connID string, raw []byte) error
	HandleDisconnect(connID string)
}

type inboundMessage struct {
	client *Client
	data   []byte
}

// Hub owns the live connections and their room groups. All state
// mutation is serialized through Run: register, unregister, and every
// inbound frame are handled one at a time on that goroutine, which is
// what gives room mutations their single-writer guarantee. The fan-out
// primitives (JoinGroup, SendTo, BroadcastToGroup) are only invoked by
// the handler, which itself only runs on the Run goroutine; the mutex
// exists for the HTTP stats readers.
type Hub struct {
	handler MessageHandler

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage

	mu      sync.RWMutex
	clients map[string]*Client            // by connection id
	groups  map[string]map[string]*Client // room id -> connection id -> client

	upgrader websocket.Upgrader
}

func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundMessage),
		clients:    make(map[string]*Client),
		groups:     make(map[string]map[string]*Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// SetHandler wires the event relay in. Must be called before Run.
func (h *Hub) SetHandler(handler MessageHandler) {
	h.handler = handler
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()

			log.Printf("🔵 Client connected: %s (total: %d)", client.id, total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; !ok {
				h.mu.Unlock()
				continue
			}
			delete(h.clients, client.id)
			for roomID, members := range h.groups {
				delete(members, client.id)
				if len(members) == 0 {
					delete(h.groups, roomID)
				}
			}
			total := len(h.clients)
			h.mu.Unlock()

			if h.handler != nil {
				h.handler.HandleDisconnect(client.id)
			}
			close(client.send)

			log.Printf("⚪ Client disconnected: %s (total: %d)", client.id, total)

		case msg := <-h.inbound:
			if h.handler == nil {
				continue
			}
			if err := h.handler.HandleMessage(msg.client.id, msg.data); err != nil {
				// Malformed or unknown-room frames change no state;
				// drop them without tearing the connection down.
				log.Printf("⚠️ Dropped event from %s: %v", msg.client.id, err)
			}
		}
	}
}

// JoinGroup subscribes a registered connection to a room's broadcasts.
func (h *Hub) JoinGroup(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return
	}
	members, ok := h.groups[roomID]
	if !ok {
		members = make(map[string]*Client)
		h.groups[roomID] = members
	}
	members[connID] = client
}

// SendTo delivers one event to a single connection. Sends to unknown
// connections are silently dropped.
func (h *Hub) SendTo(connID, event string, data any) {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		log.Printf("⚠️ Failed to encode %s: %v", event, err)
		return
	}

	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	client.enqueue(frame)
}

// BroadcastToGroup delivers one event to every member of a room,
// skipping excludeConnID when non-empty.
func (h *Hub) BroadcastToGroup(roomID, event string, data any, excludeConnID string) {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		log.Printf("⚠️ Failed to encode %s: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID, client := range h.groups[roomID] {
		if connID == excludeConnID {
			continue
		}
		client.enqueue(frame)
	}
}

// GetClientCount returns the number of registered connections.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetRoomCount returns the number of rooms with at least one
// connected member.
func (h *Hub) GetRoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups)
}

// GetActiveRooms returns connected-member counts by room id.
func (h *Hub) GetActiveRooms() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	active := make(map[string]int, len(h.groups))
	for roomID, members := range h.groups {
		active[roomID] = len(members)
	}
	return active
}

// originChecker builds the upgrade-time origin filter. A "*" entry
// allows everything; browsers that send no Origin header (non-browser
// clients, same-origin requests) are always allowed.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
