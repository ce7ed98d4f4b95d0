package domain

// WebSocket event types from client. A frame without a type field is
// treated as a chat message, matching the original {"data": <text>}
// protocol.
const (
	EventMessage = "message"
	EventJoin    = "join"
	EventLeave   = "leave"
	EventPing    = "ping"
)

// WebSocket event types to client.
const (
	EventJoined = "joined"
	EventLeft   = "left"
	EventError  = "error"
	EventPong   = "pong"
)

// Error codes for rejection events. A message sent with no active
// binding is rejected explicitly instead of silently dropped.
const (
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeUnauthenticated   = "UNAUTHENTICATED"
	ErrCodeNoActiveRoom      = "NO_ACTIVE_ROOM"
	ErrCodeChannelNotFound   = "CHANNEL_NOT_FOUND"
	ErrCodePersistenceFailed = "PERSISTENCE_FAILED"
)

// Presence notice texts.
const (
	PresenceEntered = "has entered the room."
	PresenceLeft    = "has left the room."
)

// BaseEvent is the base structure for all inbound WebSocket frames.
type BaseEvent struct {
	Type string `json:"type"`
}

// MessageEvent is an inbound chat message: {"data": <text>}.
type MessageEvent struct {
	Type string `json:"type,omitempty"`
	Data string `json:"data"`
}

// JoinEvent binds the connection to a channel, leaving the previous one.
type JoinEvent struct {
	Type      string `json:"type"`
	ChannelID string `json:"channel_id"`
}

// JoinedEvent acknowledges a channel binding.
type JoinedEvent struct {
	Type      string `json:"type"`
	ChannelID string `json:"channel_id"`
	Channel   string `json:"channel,omitempty"`
}

// LeftEvent acknowledges leaving a channel.
type LeftEvent struct {
	Type      string `json:"type"`
	ChannelID string `json:"channel_id"`
}

// ErrorEvent is an explicit rejection surfaced to the sender.
type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorEvent builds an ErrorEvent.
func NewErrorEvent(code, message string) *ErrorEvent {
	return &ErrorEvent{
		Type:    EventError,
		Code:    code,
		Message: message,
	}
}

// ChatBroadcast is the payload fanned out to every member of a channel
// for an accepted chat message.
type ChatBroadcast struct {
	Name     string `json:"name"`
	Message  string `json:"message"`
	Username string `json:"username"`
	Datetime string `json:"datetime"`
}

// PresenceNotice is the system payload announcing entry or departure.
type PresenceNotice struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}
