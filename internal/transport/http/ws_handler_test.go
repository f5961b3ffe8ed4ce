package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/roomchat/roomchat-server/internal/config"
	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/proto"
	"github.com/roomchat/roomchat-server/internal/store/sqlite"
)

func startTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := zerolog.Nop()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}

	hub := core.NewHub(st, &logger, cfg.HistoryPageSize)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := NewServer(hub, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ, id string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, ID: id, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// rawOutbound keeps Data raw so tests can decode per event type.
type rawOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *proto.Error    `json:"error,omitempty"`
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) rawOutbound {
	t.Helper()

	var out rawOutbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t, nil)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestInfoEndpoint(t *testing.T) {
	ts := startTestServer(t, nil)

	resp, err := ts.Client().Get(ts.URL + "/api/info")
	if err != nil {
		t.Fatalf("info request failed: %v", err)
	}
	defer resp.Body.Close()

	var info InfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.DefaultRoom != core.DefaultRoom || info.MaxMessageLength != core.MaxMessageLength {
		t.Fatalf("unexpected info payload: %+v", info)
	}
}

func TestWebSocketJoinAndMessageFlow(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	alice := dial(t, ctx, ts)
	send(t, ctx, alice, proto.InboundTypeJoinRoom, "1", proto.JoinRoomData{Nick: "alice"})

	roster := read(t, ctx, alice)
	if roster.Event != proto.EventUserListUpdate {
		t.Fatalf("expected roster first, got %+v", roster)
	}
	var users proto.UserListUpdate
	if err := json.Unmarshal(roster.Data, &users); err != nil {
		t.Fatalf("decode roster: %v", err)
	}
	if len(users.Users) != 1 || users.Users[0].Nick != "alice" || users.Users[0].RoomID != core.DefaultRoom {
		t.Fatalf("unexpected roster: %+v", users.Users)
	}

	history := read(t, ctx, alice)
	if history.Event != proto.EventLoadHistory {
		t.Fatalf("expected history second, got %+v", history)
	}
	var messages []proto.WireMessage
	if err := json.Unmarshal(history.Data, &messages); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected empty history, got %d", len(messages))
	}

	notice := read(t, ctx, alice)
	if notice.Event != proto.EventReceiveMessage {
		t.Fatalf("expected join notice third, got %+v", notice)
	}
	var sys proto.WireMessage
	if err := json.Unmarshal(notice.Data, &sys); err != nil {
		t.Fatalf("decode notice: %v", err)
	}
	if sys.Type != proto.MessageTypeSystem || sys.Content != "alice joined" {
		t.Fatalf("unexpected notice: %+v", sys)
	}

	ack := read(t, ctx, alice)
	if ack.Type != proto.OutboundTypeAck || ack.ID != "1" || ack.Error != nil {
		t.Fatalf("expected clean join ack, got %+v", ack)
	}

	send(t, ctx, alice, proto.InboundTypeSendMessage, "2", proto.SendMessageData{
		Content:    "hi there",
		SenderNick: "alice",
		RoomID:     core.DefaultRoom,
	})

	msg := read(t, ctx, alice)
	if msg.Event != proto.EventReceiveMessage {
		t.Fatalf("expected fan-out, got %+v", msg)
	}
	var user proto.WireMessage
	if err := json.Unmarshal(msg.Data, &user); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if user.Type != proto.MessageTypeUser || user.Content != "hi there" || user.SenderNick != "alice" {
		t.Fatalf("unexpected message: %+v", user)
	}
	if user.ID == "" || user.CreatedAt == "" {
		t.Fatalf("message missing id or timestamp: %+v", user)
	}

	ack = read(t, ctx, alice)
	if ack.Type != proto.OutboundTypeAck || ack.ID != "2" || ack.Error != nil {
		t.Fatalf("expected clean send ack, got %+v", ack)
	}
}

func TestWebSocketValidationAck(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts)
	send(t, ctx, conn, proto.InboundTypeJoinRoom, "1", proto.JoinRoomData{Nick: ""})

	ack := read(t, ctx, conn)
	if ack.Type != proto.OutboundTypeAck || ack.ID != "1" || ack.Error == nil {
		t.Fatalf("expected error ack for empty nick, got %+v", ack)
	}
}

func TestWebSocketUnknownTypeWithoutID(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts)
	send(t, ctx, conn, "dance", "", struct{}{})

	out := read(t, ctx, conn)
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != core.ErrCodeInvalidMessage {
		t.Fatalf("expected error outbound, got %+v", out)
	}
}

func TestWebSocketMalformedFrameKeepsConnection(t *testing.T) {
	ts := startTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts)
	if err := conn.Write(ctx, websocket.MessageText, []byte("{not json")); err != nil {
		t.Fatalf("write raw frame: %v", err)
	}

	out := read(t, ctx, conn)
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != core.ErrCodeBadRequest {
		t.Fatalf("expected error outbound, got %+v", out)
	}

	// The connection survives and still serves requests.
	send(t, ctx, conn, proto.InboundTypeJoinRoom, "1", proto.JoinRoomData{Nick: "alice"})
	roster := read(t, ctx, conn)
	if roster.Event != proto.EventUserListUpdate {
		t.Fatalf("expected roster after recovery, got %+v", roster)
	}
}

func TestWebSocketSendRateLimit(t *testing.T) {
	ts := startTestServer(t, func(cfg *config.Config) {
		cfg.SendRateLimit = 1
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts)
	send(t, ctx, conn, proto.InboundTypeJoinRoom, "1", proto.JoinRoomData{Nick: "alice"})
	for {
		out := read(t, ctx, conn)
		if out.Type == proto.OutboundTypeAck && out.ID == "1" {
			break
		}
	}

	payload := proto.SendMessageData{Content: "hi", SenderNick: "alice", RoomID: core.DefaultRoom}
	send(t, ctx, conn, proto.InboundTypeSendMessage, "2", payload)
	send(t, ctx, conn, proto.InboundTypeSendMessage, "3", payload)

	var limited bool
	for !limited {
		out := read(t, ctx, conn)
		if out.Type == proto.OutboundTypeAck && out.ID == "3" {
			if out.Error == nil {
				t.Fatalf("second send should be rate limited, got %+v", out)
			}
			limited = true
		}
	}
}
