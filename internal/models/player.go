// internal/models/player.go
package models

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// TurnEffects holds per-player modifiers that last until the player's
// next turn starts. Reset every startTurn so nothing leaks across turns.
type TurnEffects struct {
	RentMultiplier int `json:"rentMultiplier"`
}

// Player is one seat at the table.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	// Hand order is irrelevant to the rules but stable for display.
	Hand []*Card `json:"hand"`
	Bank []*Card `json:"bank"`

	// Properties maps every concrete color to its group, including
	// wildcards and attached buildings. Keys are fixed at creation.
	Properties map[Color][]*Card `json:"properties"`

	Effects TurnEffects `json:"effects"`

	Conn *websocket.Conn `json:"-"`
}

// NewPlayer builds a seated player with all property groups initialized
// over the closed color set.
func NewPlayer(id uuid.UUID, name string) *Player {
	props := make(map[Color][]*Card, len(Colors))
	for _, c := range Colors {
		props[c] = []*Card{}
	}
	return &Player{
		ID:         id,
		Name:       name,
		Hand:       []*Card{},
		Bank:       []*Card{},
		Properties: props,
		Effects:    TurnEffects{RentMultiplier: 1},
	}
}
