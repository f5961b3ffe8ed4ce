package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom subscribes the client to a room.
	CommandJoinRoom CommandKind = iota
	// CommandSendMessage persists and fans out a chat message.
	CommandSendMessage
	// CommandLoadMoreMessages pages backward through room history.
	CommandLoadMoreMessages
)

// Command represents an action requested by a client. AckID, when non-empty,
// asks for an acknowledgment event once the command has been handled.
type Command struct {
	Kind     CommandKind
	Client   *Client
	AckID    string
	Join     JoinPayload
	Send     SendPayload
	LoadMore LoadMorePayload
}

// JoinPayload carries a join_room request.
type JoinPayload struct {
	Nick   string
	RoomID string
}

// SendPayload carries a send_message request.
type SendPayload struct {
	Content    string
	SenderNick string
	RoomID     string
}

// LoadMorePayload carries a load_more_messages request. Limit zero means
// the default page size.
type LoadMorePayload struct {
	RoomID string
	Offset int
	Limit  int
}
