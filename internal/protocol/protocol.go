package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Wire event names. Client and server use the same envelope framing.
const (
	EventJoinRoom       = "joinRoom"
	EventCodeUpdate     = "codeUpdate"
	EventLanguageUpdate = "languageUpdate"
	EventCursorMove     = "cursorMove"
	EventUserList       = "userList"
)

// ErrUnknownEvent marks an envelope carrying an event name the server
// does not handle.
var ErrUnknownEvent = errors.New("unknown event")

// Envelope frames every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoom is the client request to enter a room under a display name.
type JoinRoom struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

// CodeUpdate carries the full document text. Inbound frames include
// the room id; outbound frames omit it.
type CodeUpdate struct {
	RoomID string `json:"roomId,omitempty"`
	Code   string `json:"code"`
}

// LanguageUpdate carries the document's language tag.
type LanguageUpdate struct {
	RoomID   string `json:"roomId,omitempty"`
	Language string `json:"language"`
}

// Position is an editor coordinate pair, opaque to the server.
type Position struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// CursorMove is ephemeral presence: relayed to peers, never stored.
type CursorMove struct {
	RoomID   string   `json:"roomId,omitempty"`
	User     string   `json:"user"`
	Position Position `json:"position"`
}

// User is one entry of a userList broadcast.
type User struct {
	Username string `json:"username"`
}

// ValidationError reports an inbound frame that could not be decoded
// or was missing a required field. The frame is rejected before any
// state change.
type ValidationError struct {
	Event string // wire event name, or "envelope" when framing itself failed
	Field string // offending field, empty when the payload was unparseable
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: required field %q missing or empty", e.Event, e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Event, e.Err)
	}
	return fmt.Sprintf("%s: invalid payload", e.Event)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DecodeEnvelope parses the outer framing of an inbound message.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, &ValidationError{Event: "envelope", Err: err}
	}
	if env.Event == "" {
		return Envelope{}, &ValidationError{Event: "envelope", Field: "event"}
	}
	return env, nil
}

// DecodeJoinRoom validates and extracts a joinRoom payload.
func (env Envelope) DecodeJoinRoom() (JoinRoom, error) {
	var p JoinRoom
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return p, &ValidationError{Event: env.Event, Err: err}
	}
	if p.RoomID == "" {
		return p, &ValidationError{Event: env.Event, Field: "roomId"}
	}
	if p.Username == "" {
		return p, &ValidationError{Event: env.Event, Field: "username"}
	}
	return p, nil
}

// DecodeCodeUpdate validates and extracts a codeUpdate payload. An
// empty code field is legal: it means the document was cleared.
func (env Envelope) DecodeCodeUpdate() (CodeUpdate, error) {
	var p CodeUpdate
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return p, &ValidationError{Event: env.Event, Err: err}
	}
	if p.RoomID == "" {
		return p, &ValidationError{Event: env.Event, Field: "roomId"}
	}
	return p, nil
}

// DecodeLanguageUpdate validates and extracts a languageUpdate payload.
func (env Envelope) DecodeLanguageUpdate() (LanguageUpdate, error) {
	var p LanguageUpdate
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return p, &ValidationError{Event: env.Event, Err: err}
	}
	if p.RoomID == "" {
		return p, &ValidationError{Event: env.Event, Field: "roomId"}
	}
	if p.Language == "" {
		return p, &ValidationError{Event: env.Event, Field: "language"}
	}
	return p, nil
}

// DecodeCursorMove validates and extracts a cursorMove payload.
func (env Envelope) DecodeCursorMove() (CursorMove, error) {
	var p CursorMove
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return p, &ValidationError{Event: env.Event, Err: err}
	}
	if p.RoomID == "" {
		return p, &ValidationError{Event: env.Event, Field: "roomId"}
	}
	if p.User == "" {
		return p, &ValidationError{Event: env.Event, Field: "user"}
	}
	return p, nil
}

// Encode frames an outbound event.
func Encode(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: payload})
}

// UserList builds a userList payload. The result is never nil so the
// wire form is always a JSON array.
func UserList(usernames []string) []User {
	users := make([]User, 0, len(usernames))
	for _, name := range usernames {
		users = append(users, User{Username: name})
	}
	return users
}
