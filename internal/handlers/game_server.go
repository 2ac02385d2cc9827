// internal/handlers/game_server.go
package handlers

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dealtable/dealtable/internal/catalog"
	"github.com/dealtable/dealtable/internal/game"
)

// GameServer ties the room registry to the card catalog every new room
// is built from.
type GameServer struct {
	Rooms   *game.RoomStore
	Catalog catalog.Catalog
	Logger  *logrus.Logger

	// ReactionWindow overrides the per-room counter window when set.
	ReactionWindow time.Duration
}

// NewGameServer builds a server around the default catalog.
func NewGameServer(logger *logrus.Logger) *GameServer {
	return &GameServer{
		Rooms:   game.NewRoomStore(),
		Catalog: catalog.Default(),
		Logger:  logger,
	}
}
