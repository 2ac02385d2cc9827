// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dealtable/dealtable/internal/game"
	"github.com/dealtable/dealtable/internal/models"
)

// ClientMessage is the envelope for every inbound intent. Fields beyond
// Type are populated per message kind; PlayCardIntent fields are promoted
// for play_card and move_wildcard.
type ClientMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`
	Name   string `json:"name,omitempty"`

	models.PlayCardIntent

	PaymentID uuid.UUID    `json:"paymentId,omitempty"`
	CardIDs   []int        `json:"cardIds,omitempty"`
	NewColor  models.Color `json:"newColor,omitempty"`
}

// RoomWSHandler upgrades the connection, establishes the guest identity,
// and runs the read loop. A connection binds to at most one room; when
// the loop exits the player is removed from it.
func RoomWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The guest cookie must be minted before the upgrade so it rides
		// the handshake response.
		playerID, authErr := EnsureGuest(w, r)

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"deal"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler exited")

		if c.Subprotocol() != "deal" {
			c.Close(BadSubprotocolError, "client must speak the deal subprotocol")
			return
		}

		if authErr != nil {
			logger.Warnf("guest auth failed: %v", authErr)
			c.Close(InvalidAuthTokenError, "authentication failed")
			return
		}
		logger.WithFields(logrus.Fields{"player": playerID, "remote": r.RemoteAddr}).Info("WebSocket connected")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sess := &session{server: gs, conn: c, playerID: playerID, logger: logger}
		sess.readLoop(ctx)

		if room := sess.room; room != nil {
			room.Mu.Lock()
			room.RemovePlayer(playerID)
			room.Mu.Unlock()
		}
		logger.WithField("player", playerID).Info("WebSocket disconnected")
	}
}

// session is one player's live connection and (after create/join) their
// bound room.
type session struct {
	server   *GameServer
	conn     *websocket.Conn
	playerID uuid.UUID
	room     *game.Room
	logger   *logrus.Logger
}

func (s *session) readLoop(ctx context.Context) {
	for {
		msgType, data, err := s.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return
			}
			if strings.Contains(err.Error(), "context canceled") {
				return
			}
			s.logger.Warnf("read error for player %s: %v", s.playerID, err)
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError("invalid JSON")
			continue
		}
		s.dispatch(ctx, msg)
	}
}

// dispatch routes one intent. Room-scoped intents run with the room lock
// held for the duration: the room is a sequential actor and this is its
// serialization point.
func (s *session) dispatch(ctx context.Context, msg ClientMessage) {
	switch msg.Type {
	case "ping":
		s.send(game.RoomEvent{Type: game.EventPong})
		return
	case "create_room":
		s.createRoom(msg)
		return
	case "join_room":
		s.joinRoom(msg)
		return
	}

	room := s.room
	if room == nil {
		s.sendError("join a room first")
		return
	}

	var err error
	room.Mu.Lock()
	switch msg.Type {
	case "start_game":
		err = room.HandleStartGame(s.playerID)
	case "draw_turn_cards":
		err = room.HandleDrawTurnCards(s.playerID)
	case "play_card":
		err = room.HandlePlayCard(s.playerID, msg.PlayCardIntent)
	case "submit_payment":
		err = room.HandleSubmitPayment(s.playerID, msg.PaymentID, msg.CardIDs)
	case "move_wildcard":
		err = room.HandleMoveWildcard(s.playerID, msg.CardID, msg.NewColor)
	case "react_just_say_no":
		err = room.HandleJustSayNo(s.playerID)
	case "end_turn":
		err = room.HandleEndTurn(s.playerID)
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}
	room.Mu.Unlock()

	if err != nil {
		s.sendError(err.Error())
	}
}

func (s *session) createRoom(msg ClientMessage) {
	if s.room != nil {
		s.sendError("you are already in a room")
		return
	}
	if msg.RoomID == "" || msg.Name == "" {
		s.sendError("create_room needs roomId and name")
		return
	}
	room, err := s.server.Rooms.CreateRoom(msg.RoomID, s.playerID, msg.Name, s.server.Catalog, s.logger)
	if err != nil {
		s.sendError(err.Error())
		return
	}

	room.Mu.Lock()
	room.BroadcastToPlayerFn = makeBroadcastToPlayer(room, s.logger)
	if s.server.ReactionWindow > 0 {
		room.ReactionWindow = s.server.ReactionWindow
	}
	if p := room.Players[0]; p.ID == s.playerID {
		p.Conn = s.conn
	}
	s.room = room
	snap := room.Snapshot(s.playerID)
	room.Mu.Unlock()

	s.send(game.RoomEvent{Type: game.EventRoomState, State: &snap})
}

func (s *session) joinRoom(msg ClientMessage) {
	if s.room != nil {
		s.sendError("you are already in a room")
		return
	}
	if msg.RoomID == "" || msg.Name == "" {
		s.sendError("join_room needs roomId and name")
		return
	}
	room, ok := s.server.Rooms.GetRoom(msg.RoomID)
	if !ok {
		s.sendError(fmt.Sprintf("room %s does not exist", msg.RoomID))
		return
	}

	room.Mu.Lock()
	err := room.AddPlayer(s.playerID, msg.Name)
	var snap game.RoomSnapshot
	if err == nil {
		// AddPlayer broadcast before the connection was bound; send the
		// joiner their first snapshot directly.
		if p := findPlayer(room, s.playerID); p != nil {
			p.Conn = s.conn
		}
		s.room = room
		snap = room.Snapshot(s.playerID)
	}
	room.Mu.Unlock()

	if err != nil {
		s.sendError(err.Error())
		return
	}
	s.send(game.RoomEvent{Type: game.EventRoomState, State: &snap})
}

func findPlayer(room *game.Room, id uuid.UUID) *models.Player {
	for _, p := range room.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// makeBroadcastToPlayer returns the room's outbound delivery function.
// It is invoked with the room lock held, so it only reads player state
// synchronously and pushes the actual write into a goroutine.
func makeBroadcastToPlayer(room *game.Room, logger *logrus.Logger) func(uuid.UUID, game.RoomEvent) {
	return func(playerID uuid.UUID, ev game.RoomEvent) {
		p := findPlayer(room, playerID)
		if p == nil || p.Conn == nil {
			return
		}
		data, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("failed to marshal %s event for player %s: %v", ev.Type, playerID, err)
			return
		}
		go func(conn *websocket.Conn) {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				logger.Warnf("failed to write %s event to player %s: %v", ev.Type, playerID, err)
			}
		}(p.Conn)
	}
}

func (s *session) send(ev game.RoomEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.logger.Errorf("failed to marshal event: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
		s.logger.Warnf("failed to write to player %s: %v", s.playerID, err)
	}
}

func (s *session) sendError(message string) {
	s.send(game.RoomEvent{Type: game.EventError, Message: message})
}
