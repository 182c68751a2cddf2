package room

import (
	"sort"
	"sync"
	"time"
)

// Defaults applied when a room is first created.
const (
	DefaultCode     = "console.log('Hello, Monaco!');"
	DefaultLanguage = "javascript"
)

// room is one collaborative session: a shared document, its language
// tag, and the member set.
type room struct {
	code     string
	language string
	members  map[string]string // connection id -> username

	// Zero while occupied; set when the last member leaves so the
	// eviction sweep can reclaim the room after a grace period.
	emptySince time.Time
	createdAt  time.Time
}

// Snapshot is a copy-out view of one room.
type Snapshot struct {
	ID        string
	Code      string
	Language  string
	Users     []string // sorted usernames
	CreatedAt time.Time
}

// Store owns all room state. Rooms are created lazily on first
// reference and writes are last-writer-wins: each one replaces the
// previous value wholesale, with no merge or version check.
//
// The event relay is the only writer; the HTTP layer and the eviction
// sweep read through copy-out accessors.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]*room)}
}

// GetOrCreate returns a snapshot of the room, creating it with the
// default document and language on first reference. Never fails.
func (s *Store) GetOrCreate(roomID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		now := time.Now()
		r = &room{
			code:       DefaultCode,
			language:   DefaultLanguage,
			members:    make(map[string]string),
			emptySince: now,
			createdAt:  now,
		}
		s.rooms[roomID] = r
	}
	return snapshot(roomID, r)
}

// Get looks a room up without creating it.
func (s *Store) Get(roomID string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return Snapshot{}, false
	}
	return snapshot(roomID, r), true
}

// SetCode replaces the document text. Returns false when the room does
// not exist, leaving state untouched.
func (s *Store) SetCode(roomID, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	r.code = code
	return true
}

// SetLanguage replaces the language tag. Returns false when the room
// does not exist.
func (s *Store) SetLanguage(roomID, language string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	r.language = language
	return true
}

// AddMember records a connection's membership. No-op on an unknown
// room.
func (s *Store) AddMember(roomID, connID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return
	}
	r.members[connID] = username
	r.emptySince = time.Time{}
}

// RemoveMember drops a connection's membership and starts the
// empty-since clock when the last member leaves.
func (s *Store) RemoveMember(roomID, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return
	}
	delete(r.members, connID)
	if len(r.members) == 0 {
		r.emptySince = time.Now()
	}
}

// Usernames returns the sorted member names of a room, nil when the
// room does not exist.
func (s *Store) Usernames(roomID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	return usernames(r)
}

// List returns snapshots of every room, sorted by id.
func (s *Store) List() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Snapshot, 0, len(s.rooms))
	for id, r := range s.rooms {
		out = append(out, snapshot(id, r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of rooms currently held, occupied or not.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// EvictIdle deletes rooms that have been empty for at least the grace
// period and returns their ids, sorted.
func (s *Store) EvictIdle(grace time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var evicted []string
	for id, r := range s.rooms {
		if !r.emptySince.IsZero() && now.Sub(r.emptySince) >= grace {
			delete(s.rooms, id)
			evicted = append(evicted, id)
		}
	}
	sort.Strings(evicted)
	return evicted
}

func snapshot(id string, r *room) Snapshot {
	return Snapshot{
		ID:        id,
		Code:      r.code,
		Language:  r.language,
		Users:     usernames(r),
		CreatedAt: r.createdAt,
	}
}

func usernames(r *room) []string {
	names := make([]string, 0, len(r.members))
	for _, name := range r.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
