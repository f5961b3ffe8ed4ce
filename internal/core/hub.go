package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/roomchat/roomchat-server/internal/store"
)

// Hub coordinates room sessions: presence, initial history delivery, message
// fan-out and backward paging. All mutable state (presence, rooms, clients)
// is owned by the Run goroutine; transports talk to it over channels only.
type Hub struct {
	store    store.MessageStore
	log      *zerolog.Logger
	pageSize int

	register   chan *Client
	unregister chan *Client
	commands   chan *Command
	done       chan struct{}

	clients  map[string]*Client
	rooms    map[string]*Room
	presence *Presence
}

// NewHub constructs a hub. pageSize bounds the initial history page; values
// below one fall back to the default.
func NewHub(st store.MessageStore, logger *zerolog.Logger, pageSize int) *Hub {
	if pageSize < 1 {
		pageSize = HistoryPageSize
	}
	return &Hub{
		store:      st,
		log:        logger,
		pageSize:   pageSize,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan *Command),
		done:       make(chan struct{}),
		clients:    make(map[string]*Client),
		rooms:      make(map[string]*Room),
		presence:   NewPresence(),
	}
}

// RegisterClient announces a new connection to the hub. A no-op once the
// hub loop has stopped.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient tears down a connection. Safe to call for clients that
// never joined a room, and after the hub loop has stopped.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Dispatch hands a client command to the hub loop.
func (h *Hub) Dispatch(cmd *Command) {
	select {
	case h.commands <- cmd:
	case <-h.done:
	}
}

// Run processes registrations and commands until the context is cancelled.
// Commands execute one at a time, so every broadcast observes a consistent
// presence view.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c.ID] = c
		case c := <-h.unregister:
			h.handleDisconnect(c)
			delete(h.clients, c.ID)
		case cmd := <-h.commands:
			h.handleCommand(ctx, cmd)
		}
	}
}

func (h *Hub) handleCommand(ctx context.Context, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinRoom:
		h.handleJoin(ctx, cmd)
	case CommandSendMessage:
		h.handleSend(ctx, cmd)
	case CommandLoadMoreMessages:
		h.handleLoadMore(ctx, cmd)
	default:
		h.ack(cmd.Client, cmd.AckID, "unknown command")
	}
}

// handleJoin registers presence, broadcasts the roster, delivers history
// privately and announces the join. The joining client receives its history
// snapshot before the system notice that references its own arrival.
func (h *Hub) handleJoin(ctx context.Context, cmd *Command) {
	c := cmd.Client
	if err := ValidateNick("nick", cmd.Join.Nick); err != nil {
		h.ack(c, cmd.AckID, err.Error())
		return
	}
	roomID := NormalizeRoomID(cmd.Join.RoomID)

	prevRoom := c.RoomID
	c.Nick = cmd.Join.Nick
	c.RoomID = roomID
	h.presence.Add(OnlineUser{ID: c.ID, Nick: c.Nick, RoomID: roomID})

	// A connection holds one room at a time: a re-join into a different
	// room vacates the old one and updates its roster.
	if prevRoom != "" && prevRoom != roomID {
		h.leaveRoom(c, prevRoom)
	}

	room := h.room(roomID)
	room.AddClient(c)

	room.Broadcast(&Event{Kind: EventUserList, Room: roomID, Users: h.presence.ByRoom(roomID)})

	stored, err := h.store.ListMessages(ctx, roomID, h.pageSize, 0)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("load initial history")
		h.ack(c, cmd.AckID, "failed to load history")
		return
	}
	c.Send(&Event{Kind: EventHistory, Room: roomID, History: toChronological(stored)})

	notice := NewSystemMessage(c.Nick+" joined", roomID)
	room.Broadcast(&Event{Kind: EventSystemMessage, Room: roomID, System: &notice})

	h.log.Debug().Str("client_id", c.ID).Str("nick", c.Nick).Str("room", roomID).Msg("client joined room")
	h.ack(c, cmd.AckID, "")
}

// handleDisconnect deregisters presence and notifies the former room. A
// disconnect without a prior successful join is a no-op.
func (h *Hub) handleDisconnect(c *Client) {
	user, ok := h.presence.Remove(c.ID)
	if !ok {
		return
	}

	room, exists := h.rooms[user.RoomID]
	if !exists {
		return
	}
	room.RemoveClient(c)
	if room.Empty() {
		delete(h.rooms, user.RoomID)
		return
	}

	room.Broadcast(&Event{Kind: EventUserList, Room: user.RoomID, Users: h.presence.ByRoom(user.RoomID)})
	notice := NewSystemMessage(user.Nick+" left", user.RoomID)
	room.Broadcast(&Event{Kind: EventSystemMessage, Room: user.RoomID, System: &notice})

	h.log.Debug().Str("client_id", c.ID).Str("nick", user.Nick).Str("room", user.RoomID).Msg("client left room")
}

// handleSend validates, persists and fans out a chat message to the room
// only. The sender receives the fan-out only when subscribed to the room.
func (h *Hub) handleSend(ctx context.Context, cmd *Command) {
	c := cmd.Client
	if err := ValidateContent(cmd.Send.Content); err != nil {
		h.ack(c, cmd.AckID, err.Error())
		return
	}
	if err := ValidateNick("senderNick", cmd.Send.SenderNick); err != nil {
		h.ack(c, cmd.AckID, err.Error())
		return
	}
	roomID := NormalizeRoomID(cmd.Send.RoomID)

	stored, err := h.store.InsertMessage(ctx, cmd.Send.Content, cmd.Send.SenderNick, roomID, roomID == DefaultRoom)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("save message")
		h.ack(c, cmd.AckID, "failed to save message")
		return
	}

	if room, exists := h.rooms[roomID]; exists {
		room.Broadcast(&Event{Kind: EventUserMessage, Room: roomID, Message: fromStore(stored)})
	}
	h.ack(c, cmd.AckID, "")
}

// handleLoadMore fetches one page of older history, newest-first with a
// one-record lookahead to compute hasMore, and answers privately.
func (h *Hub) handleLoadMore(ctx context.Context, cmd *Command) {
	c := cmd.Client
	p := cmd.LoadMore
	if err := ValidatePage(p.Offset, p.Limit); err != nil {
		h.ack(c, cmd.AckID, err.Error())
		return
	}
	limit := p.Limit
	if limit == 0 {
		limit = h.pageSize
	}
	roomID := NormalizeRoomID(p.RoomID)

	stored, err := h.store.ListMessages(ctx, roomID, limit+1, p.Offset)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("load more messages")
		h.ack(c, cmd.AckID, "failed to load messages")
		return
	}
	hasMore := len(stored) > limit
	if hasMore {
		stored = stored[:limit]
	}

	c.Send(&Event{Kind: EventMoreHistory, Room: roomID, More: &MoreHistory{
		Messages: toChronological(stored),
		HasMore:  hasMore,
	}})
	h.ack(c, cmd.AckID, "")
}

// leaveRoom removes a client from a room's broadcast group and refreshes
// the roster for the remaining members.
func (h *Hub) leaveRoom(c *Client, roomID string) {
	room, exists := h.rooms[roomID]
	if !exists {
		return
	}
	room.RemoveClient(c)
	if room.Empty() {
		delete(h.rooms, roomID)
		return
	}
	room.Broadcast(&Event{Kind: EventUserList, Room: roomID, Users: h.presence.ByRoom(roomID)})
}

// room returns the broadcast group for roomID, creating it on first use.
func (h *Hub) room(roomID string) *Room {
	if r, exists := h.rooms[roomID]; exists {
		return r
	}
	r := NewRoom(roomID)
	h.rooms[roomID] = r
	return r
}

func (h *Hub) ack(c *Client, ackID, errMsg string) {
	if ackID == "" {
		return
	}
	c.Send(&Event{Kind: EventAck, AckID: ackID, Err: errMsg})
}

// fromStore maps a stored record into the domain model.
func fromStore(m *store.Message) *Message {
	return &Message{
		ID:         m.ID,
		Content:    m.Content,
		SenderNick: m.SenderNick,
		RoomID:     m.RoomID,
		IsGlobal:   m.IsGlobal,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// toChronological reverses a newest-first page into display order.
func toChronological(stored []*store.Message) []*Message {
	messages := make([]*Message, len(stored))
	for i, m := range stored {
		messages[len(stored)-1-i] = fromStore(m)
	}
	return messages
}
