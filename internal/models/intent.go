// internal/models/intent.go
package models

import "github.com/google/uuid"

// PlayMode selects which zone a card is played into.
type PlayMode string

const (
	PlayToBank     PlayMode = "bank"
	PlayToProperty PlayMode = "property"
	PlayAsAction   PlayMode = "action"
)

// PlayCardIntent carries everything a client may supply with a play_card
// message. Optional fields are zero-valued when absent; the engine
// decides per card which ones are required.
type PlayCardIntent struct {
	CardID         int       `json:"cardId"`
	Mode           PlayMode  `json:"mode"`
	TargetPlayerID uuid.UUID `json:"targetPlayerId,omitempty"`
	ChosenColor    Color     `json:"chosenColor,omitempty"` // wildcard placement
	RentColor      Color     `json:"rentColor,omitempty"`   // rent cards
	SetColor       Color     `json:"setColor,omitempty"`    // buildings, deal breaker
	TargetCardID   int       `json:"targetCardId,omitempty"`
	ActorCardID    int       `json:"actorCardId,omitempty"` // forced deal: own card offered
}
