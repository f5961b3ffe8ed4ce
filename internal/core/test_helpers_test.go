package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/roomchat/roomchat-server/internal/store"
)

// memStore is an in-memory MessageStore for hub tests. Messages get
// sequential ids and strictly increasing timestamps so paging is
// deterministic.
type memStore struct {
	mu        sync.Mutex
	seq       int
	msgs      []*store.Message
	insertErr error
	listErr   error
}

func (m *memStore) InsertMessage(_ context.Context, content, senderNick, roomID string, isGlobal bool) (*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.seq++
	created := time.Unix(int64(m.seq), 0).UTC()
	msg := &store.Message{
		ID:         fmt.Sprintf("m%04d", m.seq),
		Content:    content,
		SenderNick: senderNick,
		RoomID:     roomID,
		IsGlobal:   isGlobal,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	m.msgs = append(m.msgs, msg)
	return msg, nil
}

func (m *memStore) ListMessages(_ context.Context, roomID string, limit, offset int) ([]*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var room []*store.Message
	for _, msg := range m.msgs {
		if msg.RoomID == roomID {
			room = append(room, msg)
		}
	}
	var page []*store.Message
	for i := len(room) - 1 - offset; i >= 0 && len(page) < limit; i-- {
		page = append(page, room[i])
	}
	return page, nil
}

func (m *memStore) DeleteMessagesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*store.Message
	var removed int64
	for _, msg := range m.msgs {
		if msg.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, msg)
	}
	m.msgs = kept
	return removed, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) failList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// startHub runs a hub against st for the duration of the test.
func startHub(t *testing.T, st store.MessageStore, pageSize int) *Hub {
	t.Helper()

	hub := NewHub(st, testLogger(), pageSize)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

// nextEvent pops the next event or fails after a timeout.
func nextEvent(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()

	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
		return nil
	}
}

// mustEvent drains ch until an event of the wanted kind arrives.
func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
			return nil
		}
	}
}

// assertNoEvent fails if anything arrives on ch within a short window.
func assertNoEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("expected no event, got kind %v", ev.Kind)
	case <-time.After(100 * time.Millisecond):
	}
}

// joinRoom joins a client and drains its own join events (roster, history,
// join notice, ack).
func joinRoom(t *testing.T, hub *Hub, c *Client, nick, roomID string) {
	t.Helper()

	hub.Dispatch(&Command{
		Kind:   CommandJoinRoom,
		Client: c,
		AckID:  "join-" + c.ID,
		Join:   JoinPayload{Nick: nick, RoomID: roomID},
	})
	ack := mustEvent(t, c.Events, EventAck)
	if ack.Err != "" {
		t.Fatalf("join %s failed: %s", nick, ack.Err)
	}
}
