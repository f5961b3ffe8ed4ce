package proto

import "encoding/json"

const (
	ProtocolVersion = 1

	InboundTypeJoinRoom         = "join_room"
	InboundTypeSendMessage      = "send_message"
	InboundTypeLoadMoreMessages = "load_more_messages"

	OutboundTypeEvent = "event"
	OutboundTypeAck   = "ack"
	OutboundTypeError = "error"

	EventUserListUpdate           = "user_list_update"
	EventLoadHistory              = "load_history"
	EventReceiveMessage           = "receive_message"
	EventLoadMoreMessagesResponse = "load_more_messages_response"

	MessageTypeUser   = "user"
	MessageTypeSystem = "system"
)

// Inbound is the envelope for messages coming from the client. ID, when
// present, requests an acknowledgment for this request.
type Inbound struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data"`
}

// JoinRoomData requests to join a room. An empty roomId means the default room.
type JoinRoomData struct {
	Nick   string `json:"nick"`
	RoomID string `json:"roomId"`
}

// SendMessageData is a chat message from the client.
type SendMessageData struct {
	Content    string `json:"content"`
	SenderNick string `json:"senderNick"`
	RoomID     string `json:"roomId"`
}

// LoadMoreMessagesData pages backward through a room's history. Limit is
// optional; absent means the server default.
type LoadMoreMessagesData struct {
	RoomID string `json:"roomId"`
	Offset int    `json:"offset"`
	Limit  *int   `json:"limit,omitempty"`
}

// Outbound is the envelope for messages sent to the client. Acks echo the
// inbound ID and carry an error on failure.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// OnlineUser is a roster entry on the wire.
type OnlineUser struct {
	ID     string `json:"id"`
	Nick   string `json:"nick"`
	RoomID string `json:"roomId"`
}

// UserListUpdate carries the full roster of a room.
type UserListUpdate struct {
	Users []OnlineUser `json:"users"`
}

// WireMessage is a serialized user or system message; Type discriminates.
// System messages omit senderNick, isGlobal and updatedAt. Timestamps are
// RFC 3339 strings.
type WireMessage struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Content    string `json:"content"`
	SenderNick string `json:"senderNick,omitempty"`
	RoomID     string `json:"roomId"`
	IsGlobal   *bool  `json:"isGlobal,omitempty"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// LoadMoreMessagesResponse is one page of older history.
type LoadMoreMessagesResponse struct {
	Messages []WireMessage `json:"messages"`
	HasMore  bool          `json:"hasMore"`
}
