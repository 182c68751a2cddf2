package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordJoinAndDisconnect(t *testing.T) {
	registry := NewRegistry()

	registry.RecordJoin("conn-a", "room-1", "alice")

	memberships := registry.OnDisconnect("conn-a")
	assert.Equal(t, []Membership{{RoomID: "room-1", Username: "alice"}}, memberships)

	// A second disconnect finds nothing.
	assert.Nil(t, registry.OnDisconnect("conn-a"))
}

func TestDisconnectUnknownConnection(t *testing.T) {
	registry := NewRegistry()
	assert.Nil(t, registry.OnDisconnect("never-seen"))
}

func TestMultiRoomMembership(t *testing.T) {
	registry := NewRegistry()

	registry.RecordJoin("conn-a", "room-c", "alice")
	registry.RecordJoin("conn-a", "room-a", "alice")
	registry.RecordJoin("conn-a", "room-b", "alice")

	memberships := registry.OnDisconnect("conn-a")
	assert.Equal(t, []Membership{
		{RoomID: "room-a", Username: "alice"},
		{RoomID: "room-b", Username: "alice"},
		{RoomID: "room-c", Username: "alice"},
	}, memberships)
}

func TestRejoinSameRoomOverwritesUsername(t *testing.T) {
	registry := NewRegistry()

	registry.RecordJoin("conn-a", "room-1", "alice")
	registry.RecordJoin("conn-a", "room-1", "alicia")

	memberships := registry.OnDisconnect("conn-a")
	assert.Equal(t, []Membership{{RoomID: "room-1", Username: "alicia"}}, memberships)
}

func TestConnectionsAreIndependent(t *testing.T) {
	registry := NewRegistry()

	registry.RecordJoin("conn-a", "room-1", "alice")
	registry.RecordJoin("conn-b", "room-1", "bob")
	assert.Equal(t, 2, registry.ConnectionCount())

	registry.OnDisconnect("conn-a")
	assert.Equal(t, 1, registry.ConnectionCount())

	memberships := registry.OnDisconnect("conn-b")
	assert.Equal(t, []Membership{{RoomID: "room-1", Username: "bob"}}, memberships)
}
