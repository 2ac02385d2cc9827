// internal/game/room_store.go
package game

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dealtable/dealtable/internal/catalog"
)

// RoomStore manages the in-memory room registry, keyed by room code.
// Room lifetime is tied to occupancy: rooms delete themselves via OnEmpty
// when the last player leaves.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRoomStore returns an empty in-memory registry.
func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*Room)}
}

// CreateRoom builds and registers a room with its creator as host.
func (s *RoomStore) CreateRoom(id string, hostID uuid.UUID, hostName string, cat catalog.Catalog, logger *logrus.Logger) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[id]; exists {
		return nil, fmt.Errorf("room %s already exists", id)
	}
	room := NewRoom(id, hostID, hostName, cat, logger)
	room.OnEmpty = s.DeleteRoom
	s.rooms[id] = room
	return room, nil
}

// GetRoom retrieves a room if it exists.
func (s *RoomStore) GetRoom(id string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	return room, ok
}

// DeleteRoom removes a room from the registry.
func (s *RoomStore) DeleteRoom(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}
