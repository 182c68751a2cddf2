package relay

import (
	"fmt"
	"log"

	"github.com/codepair/backend/internal/protocol"
	"github.com/codepair/backend/internal/room"
	"github.com/codepair/backend/internal/session"
)

// Transport is the fan-out surface the relay drives. The websocket hub
// implements it; tests substitute a recorder.
type Transport interface {
	// JoinGroup subscribes a connection to a room's broadcasts.
	JoinGroup(connID, roomID string)

	// SendTo delivers one event to a single connection. Fire and
	// forget: sends to gone or slow connections are dropped.
	SendTo(connID, event string, data any)

	// BroadcastToGroup delivers one event to every connection in a
	// room, skipping excludeConnID when non-empty.
	BroadcastToGroup(roomID, event string, data any, excludeConnID string)
}

// UnknownRoomError reports a mutating event that targeted a room no
// one ever joined. The event is dropped with no state change; clients
// always join before editing, so this is a protocol violation, not a
// server fault.
type UnknownRoomError struct {
	Event  string
	RoomID string
}

func (e *UnknownRoomError) Error() string {
	return fmt.Sprintf("%s for unknown room %q", e.Event, e.RoomID)
}

// Relay applies inbound events to the room store and session registry
// and computes the broadcast set for each. Every method must be called
// from a single goroutine (the hub run loop); that serialization is
// what keeps joins and edits atomic with respect to each other, so the
// relay adds no locking of its own.
type Relay struct {
	store     *room.Store
	sessions  *session.Registry
	transport Transport
}

func New(store *room.Store, sessions *session.Registry, transport Transport) *Relay {
	return &Relay{
		store:     store,
		sessions:  sessions,
		transport: transport,
	}
}

// HandleMessage decodes one inbound frame and dispatches it. A
// returned error is a *protocol.ValidationError or *UnknownRoomError;
// in both cases no state was changed and the frame was dropped.
func (r *Relay) HandleMessage(connID string, raw []byte) error {
	env, err := protocol.DecodeEnvelope(raw)
	if err != nil {
		return err
	}

	switch env.Event {
	case protocol.EventJoinRoom:
		p, err := env.DecodeJoinRoom()
		if err != nil {
			return err
		}
		r.handleJoin(connID, p)
		return nil

	case protocol.EventCodeUpdate:
		p, err := env.DecodeCodeUpdate()
		if err != nil {
			return err
		}
		return r.handleCodeUpdate(connID, p)

	case protocol.EventLanguageUpdate:
		p, err := env.DecodeLanguageUpdate()
		if err != nil {
			return err
		}
		return r.handleLanguageUpdate(connID, p)

	case protocol.EventCursorMove:
		p, err := env.DecodeCursorMove()
		if err != nil {
			return err
		}
		return r.handleCursorMove(connID, p)

	default:
		return &protocol.ValidationError{Event: env.Event, Err: protocol.ErrUnknownEvent}
	}
}

// HandleDisconnect tears down every membership the connection had:
// the store forgets the member and each affected room sees a fresh
// userList broadcast.
func (r *Relay) HandleDisconnect(connID string) {
	for _, m := range r.sessions.OnDisconnect(connID) {
		r.store.RemoveMember(m.RoomID, connID)
		r.broadcastUserList(m.RoomID)
		log.Printf("🔴 %s left room %s", m.Username, m.RoomID)
	}
}

func (r *Relay) handleJoin(connID string, p protocol.JoinRoom) {
	snap := r.store.GetOrCreate(p.RoomID)
	r.store.AddMember(p.RoomID, connID, p.Username)
	r.sessions.RecordJoin(connID, p.RoomID, p.Username)
	r.transport.JoinGroup(connID, p.RoomID)

	// The whole room learns the new member set; only the joiner gets
	// the document snapshot. Peers already hold the document, and
	// re-sending it would flash the default text on their editors.
	r.broadcastUserList(p.RoomID)
	r.transport.SendTo(connID, protocol.EventCodeUpdate, protocol.CodeUpdate{Code: snap.Code})
	r.transport.SendTo(connID, protocol.EventLanguageUpdate, protocol.LanguageUpdate{Language: snap.Language})

	log.Printf("📢 %s joined room %s", p.Username, p.RoomID)
}

func (r *Relay) handleCodeUpdate(connID string, p protocol.CodeUpdate) error {
	if !r.store.SetCode(p.RoomID, p.Code) {
		return &UnknownRoomError{Event: protocol.EventCodeUpdate, RoomID: p.RoomID}
	}
	// Sender excluded: its editor is the source of this text already.
	r.transport.BroadcastToGroup(p.RoomID, protocol.EventCodeUpdate,
		protocol.CodeUpdate{Code: p.Code}, connID)
	return nil
}

func (r *Relay) handleLanguageUpdate(connID string, p protocol.LanguageUpdate) error {
	if !r.store.SetLanguage(p.RoomID, p.Language) {
		return &UnknownRoomError{Event: protocol.EventLanguageUpdate, RoomID: p.RoomID}
	}
	r.transport.BroadcastToGroup(p.RoomID, protocol.EventLanguageUpdate,
		protocol.LanguageUpdate{Language: p.Language}, connID)
	return nil
}

// handleCursorMove relays presence without touching the store: cursor
// positions are ephemeral and expire on the receiving client.
func (r *Relay) handleCursorMove(connID string, p protocol.CursorMove) error {
	if _, ok := r.store.Get(p.RoomID); !ok {
		return &UnknownRoomError{Event: protocol.EventCursorMove, RoomID: p.RoomID}
	}
	r.transport.BroadcastToGroup(p.RoomID, protocol.EventCursorMove,
		protocol.CursorMove{User: p.User, Position: p.Position}, connID)
	return nil
}

func (r *Relay) broadcastUserList(roomID string) {
	users := protocol.UserList(r.store.Usernames(roomID))
	r.transport.BroadcastToGroup(roomID, protocol.EventUserList, users, "")
}
