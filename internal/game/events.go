// internal/game/events.go
package game

// RoomEventType is an enum-like type for messages pushed to clients.
type RoomEventType string

const (
	// EventRoomState carries a per-viewer snapshot after every accepted
	// mutation.
	EventRoomState RoomEventType = "room_state"
	// EventNotice is a public narrative line (rent charged, steal had no
	// eligible target, reaction cancelled, ...).
	EventNotice RoomEventType = "notice"
	// EventError is a private validation notice to the intent's author.
	EventError RoomEventType = "error"
	// EventPong answers a client ping.
	EventPong RoomEventType = "pong"
)

// RoomEvent is the single outbound message shape.
type RoomEvent struct {
	Type    RoomEventType `json:"type"`
	Message string        `json:"message,omitempty"`
	State   *RoomSnapshot `json:"state,omitempty"`
}
