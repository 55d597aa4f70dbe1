package room

// Event types published on a room's stream.
const (
	EventJoin        = "join"
	EventLeave       = "leave"
	EventChat        = "chat"
	EventInteraction = "interaction"
	EventClosed      = "closed"
)

// Event is a room activity notification.
type Event struct {
	Type   string      `json:"type"`
	RoomID string      `json:"room_id"`
	UserID string      `json:"user_id,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}
