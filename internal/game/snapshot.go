// internal/game/snapshot.go
package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealtable/dealtable/internal/models"
)

// PlayerView is one seat as seen by a specific viewer. Only the viewer's
// own hand is disclosed; everyone else shows a count.
type PlayerView struct {
	ID        uuid.UUID                        `json:"id"`
	Name      string                           `json:"name"`
	IsHost    bool                             `json:"isHost"`
	IsCurrent bool                             `json:"isCurrent"`
	HandCount int                              `json:"handCount"`
	Hand      []*models.Card                   `json:"hand,omitempty"`
	Bank      []*models.Card                   `json:"bank"`
	BankTotal int                              `json:"bankTotal"`
	Props     map[models.Color][]*models.Card  `json:"properties"`
	FullSets  []models.Color                   `json:"fullSets,omitempty"`
}

// ReactionView is the public face of a pending reaction: actors, kind and
// deadline only, never a preview of hidden hands.
type ReactionView struct {
	ID        uuid.UUID         `json:"id"`
	SourceID  uuid.UUID         `json:"sourceId"`
	TargetIDs []uuid.UUID       `json:"targetIds"`
	Kind      models.ActionKind `json:"kind"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// PaymentView is the public face of a pending payment queue.
type PaymentView struct {
	ID           uuid.UUID      `json:"id"`
	ReceiverID   uuid.UUID      `json:"receiverId"`
	Queue        []PaymentEntry `json:"queue"`
	CurrentPayer uuid.UUID      `json:"currentPayer"`
}

// RoomSnapshot is the full per-viewer state broadcast after every
// accepted mutation.
type RoomSnapshot struct {
	RoomID          string           `json:"roomId"`
	HostID          uuid.UUID        `json:"hostId"`
	Started         bool             `json:"started"`
	DeckCount       int              `json:"deckCount"`
	DiscardCount    int              `json:"discardCount"`
	DiscardTop      *models.Card     `json:"discardTop,omitempty"`
	CurrentPlayerID uuid.UUID        `json:"currentPlayerId,omitempty"`
	CardsPlayed     int              `json:"cardsPlayed"`
	PendingTurnDraw *PendingTurnDraw `json:"pendingTurnDraw,omitempty"`
	Reaction        *ReactionView    `json:"reaction,omitempty"`
	Payment         *PaymentView     `json:"payment,omitempty"`
	WinnerID        uuid.UUID        `json:"winnerId,omitempty"`
	Players         []PlayerView     `json:"players"`
}

// Snapshot projects the room for one viewer. Assumes Mu is held.
func (r *Room) Snapshot(forPlayer uuid.UUID) RoomSnapshot {
	snap := RoomSnapshot{
		RoomID:       r.ID,
		HostID:       r.HostID,
		Started:      r.Started,
		DeckCount:    len(r.Deck),
		DiscardCount: len(r.Discard),
		CardsPlayed:  r.CardsPlayedThisTurn,
		WinnerID:     r.WinnerID,
	}
	if len(r.Discard) > 0 {
		snap.DiscardTop = r.Discard[len(r.Discard)-1]
	}
	if r.Started {
		if cur := r.currentPlayer(); cur != nil {
			snap.CurrentPlayerID = cur.ID
		}
	}
	if r.PendingTurnDraw != nil {
		pending := *r.PendingTurnDraw
		snap.PendingTurnDraw = &pending
	}
	if reaction := r.PendingReaction; reaction != nil {
		snap.Reaction = &ReactionView{
			ID:        reaction.ID,
			SourceID:  reaction.SourceID,
			TargetIDs: append([]uuid.UUID(nil), reaction.TargetIDs...),
			Kind:      reaction.Kind,
			ExpiresAt: reaction.ExpiresAt,
		}
	}
	if pay := r.PendingPayment; pay != nil {
		snap.Payment = &PaymentView{
			ID:           pay.ID,
			ReceiverID:   pay.ReceiverID,
			Queue:        append([]PaymentEntry(nil), pay.Queue...),
			CurrentPayer: pay.CurrentPayer(),
		}
	}

	for i, p := range r.Players {
		view := PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			IsHost:    p.ID == r.HostID,
			IsCurrent: r.Started && i == r.CurrentPlayerIndex,
			HandCount: len(p.Hand),
			Bank:      p.Bank,
			Props:     p.Properties,
			FullSets:  fullSetColors(p),
		}
		bankTotal := 0
		for _, c := range p.Bank {
			bankTotal += c.Value
		}
		view.BankTotal = bankTotal
		if p.ID == forPlayer {
			view.Hand = p.Hand
		}
		snap.Players = append(snap.Players, view)
	}
	return snap
}
