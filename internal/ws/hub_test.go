package ws

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

// fakeHandler records relay callbacks without needing a real relay.
type fakeHandler struct {
	messages     chan string
	disconnected chan string
}

func newFakeHandler() *fakeHandler {
	return &fakeHandler{
		messages:     make(chan string, 16),
		disconnected: make(chan string, 16),
	}
}

func (f *fakeHandler) HandleMessage(connID string, raw []byte) error {
	f.messages <- connID
	return nil
}

func (f *fakeHandler) HandleDisconnect(connID string) {
	f.disconnected <- connID
}

func newTestClient(hub *Hub, id string) *Client {
	return &Client{
		hub:  hub,
		id:   id,
		send: make(chan []byte, 16),
	}
}

func TestHubCreation(t *testing.T) {
	hub := NewHub([]string{"*"})
	if hub == nil {
		t.Fatal("Hub should not be nil")
	}
	if hub.clients == nil {
		t.Error("Hub clients map should be initialized")
	}
	if hub.groups == nil {
		t.Error("Hub groups map should be initialized")
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.GetClientCount())
	}
	if hub.GetRoomCount() != 0 {
		t.Errorf("Expected 0 rooms, got %d", hub.GetRoomCount())
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub([]string{"*"})
	handler := newFakeHandler()
	hub.SetHandler(handler)
	go hub.Run()

	client := newTestClient(hub, "conn-a")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	if hub.GetClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", hub.GetClientCount())
	}

	hub.JoinGroup("conn-a", "room-1")
	if hub.GetRoomCount() != 1 {
		t.Errorf("Expected 1 room, got %d", hub.GetRoomCount())
	}

	hub.unregister <- client

	select {
	case id := <-handler.disconnected:
		if id != "conn-a" {
			t.Errorf("Expected disconnect for conn-a, got %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("Handler was not told about the disconnect")
	}

	time.Sleep(10 * time.Millisecond)
	if hub.GetClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.GetClientCount())
	}
	if hub.GetRoomCount() != 0 {
		t.Errorf("Expected empty group to be removed, got %d", hub.GetRoomCount())
	}

	// The send channel is closed on unregister.
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("Expected send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("Send channel was not closed")
	}
}

func TestInboundReachesHandler(t *testing.T) {
	hub := NewHub([]string{"*"})
	handler := newFakeHandler()
	hub.SetHandler(handler)
	go hub.Run()

	client := newTestClient(hub, "conn-a")
	hub.register <- client
	hub.inbound <- inboundMessage{client: client, data: []byte(`{"event":"x"}`)}

	select {
	case id := <-handler.messages:
		if id != "conn-a" {
			t.Errorf("Expected message from conn-a, got %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("Handler never received the inbound frame")
	}
}

func TestBroadcastToGroupExcludesSender(t *testing.T) {
	hub := NewHub([]string{"*"})
	go hub.Run()

	sender := newTestClient(hub, "conn-a")
	peer := newTestClient(hub, "conn-b")
	hub.register <- sender
	hub.register <- peer
	time.Sleep(10 * time.Millisecond)
	hub.JoinGroup("conn-a", "room-1")
	hub.JoinGroup("conn-b", "room-1")

	hub.BroadcastToGroup("room-1", "codeUpdate", map[string]string{"code": "X"}, "conn-a")

	select {
	case frame := <-peer.send:
		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("Failed to decode frame: %v", err)
		}
		if env.Event != "codeUpdate" {
			t.Errorf("Expected codeUpdate, got %s", env.Event)
		}
	case <-time.After(time.Second):
		t.Fatal("Peer never received the broadcast")
	}

	select {
	case frame := <-sender.send:
		t.Errorf("Sender should not receive its own broadcast, got %s", frame)
	default:
	}
}

func TestBroadcastToUnknownGroupIsNoop(t *testing.T) {
	hub := NewHub([]string{"*"})
	hub.BroadcastToGroup("ghost", "codeUpdate", map[string]string{}, "")
}

func TestSendToUnknownConnectionIsNoop(t *testing.T) {
	hub := NewHub([]string{"*"})
	hub.SendTo("ghost", "codeUpdate", map[string]string{})
}

func TestSendTo(t *testing.T) {
	hub := NewHub([]string{"*"})
	go hub.Run()

	client := newTestClient(hub, "conn-a")
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.SendTo("conn-a", "languageUpdate", map[string]string{"language": "go"})

	select {
	case frame := <-client.send:
		if len(frame) == 0 {
			t.Error("Expected a non-empty frame")
		}
	case <-time.After(time.Second):
		t.Fatal("Client never received the frame")
	}
}

func TestSlowConsumerDropsFrames(t *testing.T) {
	hub := NewHub([]string{"*"})
	go hub.Run()

	client := &Client{hub: hub, id: "conn-a", send: make(chan []byte, 1)}
	hub.register <- client
	time.Sleep(10 * time.Millisecond)
	hub.JoinGroup("conn-a", "room-1")

	// The second frame overflows the buffer and must be dropped
	// without blocking the caller.
	hub.SendTo("conn-a", "codeUpdate", map[string]string{"code": "1"})
	hub.SendTo("conn-a", "codeUpdate", map[string]string{"code": "2"})

	if got := len(client.send); got != 1 {
		t.Errorf("Expected 1 buffered frame, got %d", got)
	}
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "wildcard allows anything", allowed: []string{"*"}, origin: "http://evil.example", want: true},
		{name: "listed origin allowed", allowed: []string{"http://app.example"}, origin: "http://app.example", want: true},
		{name: "unlisted origin rejected", allowed: []string{"http://app.example"}, origin: "http://evil.example", want: false},
		{name: "no origin header allowed", allowed: []string{"http://app.example"}, origin: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := originChecker(tt.allowed)
			req, _ := http.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := check(req); got != tt.want {
				t.Errorf("originChecker(%v) with origin %q = %v, want %v",
					tt.allowed, tt.origin, got, tt.want)
			}
		})
	}
}
