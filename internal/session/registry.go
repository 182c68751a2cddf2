package session

import (
	"sort"
	"sync"
)

// Membership records one room a connection joined and the display name
// it used there.
type Membership struct {
	RoomID   string
	Username string
}

// Registry is the reverse index from connection id to the rooms that
// connection has joined. The transport's disconnect signal carries only
// a connection id; the registry resolves it to the affected rooms in
// O(memberships) instead of scanning every room.
//
// Nothing stops a connection from joining several rooms; the protocol
// has no leave event, so memberships accumulate until disconnect.
type Registry struct {
	mu     sync.Mutex
	byConn map[string]map[string]string // connID -> roomID -> username
}

func NewRegistry() *Registry {
	return &Registry{byConn: make(map[string]map[string]string)}
}

// RecordJoin associates the connection with a room. Joining the same
// room again just updates the recorded display name.
func (r *Registry) RecordJoin(connID, roomID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, ok := r.byConn[connID]
	if !ok {
		rooms = make(map[string]string)
		r.byConn[connID] = rooms
	}
	rooms[roomID] = username
}

// OnDisconnect removes every membership of the connection and returns
// them sorted by room id. A connection with no recorded joins yields
// nil.
func (r *Registry) OnDisconnect(connID string) []Membership {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, ok := r.byConn[connID]
	if !ok {
		return nil
	}
	delete(r.byConn, connID)

	memberships := make([]Membership, 0, len(rooms))
	for roomID, username := range rooms {
		memberships = append(memberships, Membership{RoomID: roomID, Username: username})
	}
	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].RoomID < memberships[j].RoomID
	})
	return memberships
}

// ConnectionCount returns the number of connections with at least one
// membership.
func (r *Registry) ConnectionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byConn)
}
