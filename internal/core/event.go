package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventUserList carries the current roster of a room.
	EventUserList EventKind = iota
	// EventHistory delivers the initial message history to a joining client.
	EventHistory
	// EventUserMessage fans out a persisted chat message to a room.
	EventUserMessage
	// EventSystemMessage fans out a join/leave notice to a room.
	EventSystemMessage
	// EventMoreHistory answers a load_more_messages request privately.
	EventMoreHistory
	// EventAck acknowledges a client command, with an error message on failure.
	EventAck
	// EventError reports a protocol failure for a request that carried no ack id.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Room    string
	Users   []OnlineUser
	Message *Message
	System  *SystemMessage
	History []*Message // chronological, for EventHistory
	More    *MoreHistory
	AckID   string
	ErrCode string
	Err     string
}

// MoreHistory is one page of older messages plus the lookahead flag.
type MoreHistory struct {
	Messages []*Message // chronological
	HasMore  bool
}
