package store

import (
	"context"
	"time"
)

// Message represents a persisted chat message.
type Message struct {
	ID         string
	Content    string
	SenderNick string
	RoomID     string
	IsGlobal   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MessageStore handles message persistence.
type MessageStore interface {
	// InsertMessage persists a new message and returns the stored record.
	InsertMessage(ctx context.Context, content, senderNick, roomID string, isGlobal bool) (*Message, error)

	// ListMessages returns up to limit messages from a room, newest first,
	// skipping offset records from the newest. Ties on created_at break by
	// id descending so pages are deterministic.
	ListMessages(ctx context.Context, roomID string, limit, offset int) ([]*Message, error)

	// DeleteMessagesBefore removes all messages created before cutoff,
	// across every room. Returns the number of rows removed.
	DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close closes the underlying database connection.
	Close() error
}
