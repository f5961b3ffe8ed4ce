package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roomchat/roomchat-server/internal/store"
)

// Store implements store.MessageStore for SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	content     TEXT NOT NULL,
	sender_nick TEXT NOT NULL,
	room_id     TEXT NOT NULL DEFAULT 'global',
	is_global   BOOLEAN NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_room_created ON messages (room_id, created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_messages_created ON messages (created_at);
`

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file; ":memory:" works for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertMessage persists a new message and returns the stored record.
func (s *Store) InsertMessage(ctx context.Context, content, senderNick, roomID string, isGlobal bool) (*store.Message, error) {
	msg := &store.Message{
		ID:         uuid.NewString(),
		Content:    content,
		SenderNick: senderNick,
		RoomID:     roomID,
		IsGlobal:   isGlobal,
	}
	msg.CreatedAt = s.now().UTC()
	msg.UpdatedAt = msg.CreatedAt

	query := `
		INSERT INTO messages (id, content, sender_nick, room_id, is_global, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.Content, msg.SenderNick, msg.RoomID, msg.IsGlobal, msg.CreatedAt, msg.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return msg, nil
}

// ListMessages retrieves one page of a room's messages, newest first.
func (s *Store) ListMessages(ctx context.Context, roomID string, limit, offset int) ([]*store.Message, error) {
	query := `
		SELECT id, content, sender_nick, room_id, is_global, created_at, updated_at
		FROM messages
		WHERE room_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, roomID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.Content,
			&msg.SenderNick,
			&msg.RoomID,
			&msg.IsGlobal,
			&msg.CreatedAt,
			&msg.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// DeleteMessagesBefore removes every message older than cutoff.
func (s *Store) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}
