package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/codepair/backend/internal/room"
	"github.com/codepair/backend/internal/ws"
)

// API serves the read-only observability surface. Rooms exist only
// through joinRoom events, so there are no create or delete handlers.
type API struct {
	hub   *ws.Hub
	store *room.Store
}

func New(hub *ws.Hub, store *room.Store) *API {
	return &API{
		hub:   hub,
		store: store,
	}
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// StatsHandler reports live counters. active_rooms counts rooms with a
// connected member; total_rooms also includes empty rooms waiting out
// the eviction grace period.
func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"active_rooms":   a.hub.GetRoomCount(),
		"active_clients": a.hub.GetClientCount(),
		"total_rooms":    a.store.Count(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

type RoomResponse struct {
	ID          string    `json:"id"`
	Language    string    `json:"language"`
	ActiveUsers int       `json:"active_users"`
	Users       []string  `json:"users"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *API) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rooms := a.store.List()

	response := make([]RoomResponse, len(rooms))
	for i, snap := range rooms {
		response[i] = roomResponse(snap)
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"rooms": response,
		"total": len(response),
	})
}

func (a *API) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Extract room ID from path: /api/rooms/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	roomID := strings.TrimSuffix(path, "/")

	if roomID == "" {
		errorResponse(w, http.StatusBadRequest, "Room ID is required")
		return
	}

	snap, ok := a.store.Get(roomID)
	if !ok {
		errorResponse(w, http.StatusNotFound, "Room not found")
		return
	}

	jsonResponse(w, http.StatusOK, roomResponse(snap))
}

func (a *API) RoomsRouter(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/rooms")

	// /api/rooms or /api/rooms/
	if path == "" || path == "/" {
		if r.Method == http.MethodGet {
			a.ListRoomsHandler(w, r)
		} else {
			errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	// /api/rooms/{id}
	a.GetRoomHandler(w, r)
}

func roomResponse(snap room.Snapshot) RoomResponse {
	return RoomResponse{
		ID:          snap.ID,
		Language:    snap.Language,
		ActiveUsers: len(snap.Users),
		Users:       snap.Users,
		CreatedAt:   snap.CreatedAt,
	}
}
