package core

import (
	"time"

	"github.com/google/uuid"
)

// Limits and defaults shared across the domain.
const (
	// DefaultRoom is the room used when a client does not name one.
	DefaultRoom = "global"
	// MaxMessageLength bounds the content of a chat message, in runes.
	MaxMessageLength = 1000
	// MaxNickLength bounds display names, in runes.
	MaxNickLength = 50
	// HistoryPageSize is the default number of messages per history page.
	HistoryPageSize = 50
	// MaxHistoryLimit caps the page size a client may request.
	MaxHistoryLimit = 100
)

// Message is the domain model for a persisted chat message.
type Message struct {
	ID         string
	Content    string
	SenderNick string
	RoomID     string
	IsGlobal   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SystemMessage is an ephemeral join/leave notice. It exists only on the
// wire and is never persisted.
type SystemMessage struct {
	ID        string
	Content   string
	RoomID    string
	CreatedAt time.Time
}

// NewSystemMessage builds a system notice for a room.
func NewSystemMessage(content, roomID string) SystemMessage {
	return SystemMessage{
		ID:        uuid.NewString(),
		Content:   content,
		RoomID:    roomID,
		CreatedAt: time.Now().UTC(),
	}
}

// OnlineUser is a presence entry: one per live connection.
type OnlineUser struct {
	ID     string
	Nick   string
	RoomID string
}
