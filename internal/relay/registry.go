package relay

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/Tyrowin/roomrelay/internal/broadcast"
)

// RoomID identifies a room.
type RoomID int64

// ParseRoomID parses a decimal room id as it appears in a request path.
func ParseRoomID(s string) (RoomID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse room id %q: %w", s, err)
	}
	return RoomID(id), nil
}

// Registry owns one broadcast channel per room. Rooms are created on first
// use and live for the lifetime of the registry.
type Registry struct {
	mu       sync.Mutex
	rooms    map[RoomID]*broadcast.Channel[Envelope]
	capacity int
}

// NewRegistry creates an empty registry whose rooms buffer up to capacity
// envelopes per subscriber.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		rooms:    make(map[RoomID]*broadcast.Channel[Envelope]),
		capacity: capacity,
	}
}

// Room returns the channel for id, creating it if needed. Concurrent callers
// asking for the same unseen id all get the same channel.
func (r *Registry) Room(id RoomID) *broadcast.Channel[Envelope] {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		room = broadcast.New[Envelope](r.capacity)
		r.rooms[id] = room
	}
	return room
}

// Publish sends env to every subscriber of room id and returns the number of
// subscribers it was queued for.
func (r *Registry) Publish(id RoomID, env Envelope) int {
	return r.Room(id).Publish(env)
}

// Len returns the number of rooms created so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
