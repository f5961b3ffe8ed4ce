package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/proto"
	"github.com/roomchat/roomchat-server/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub       *core.Hub
	sendLimit int
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. sendLimit caps send_message
// requests per connection per minute; zero disables the cap.
func NewWSHandler(hub *core.Hub, sendLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, sendLimit: sendLimit, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewClient(utils.NewID())
	h.hub.RegisterClient(client)
	// Unregister drives the disconnect flow: presence removal, roster
	// update and the "left" notice for the former room.
	defer h.hub.UnregisterClient(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop decodes inbound envelopes and dispatches them to the hub. Shape
// and rate-limit failures are pushed onto the client's event channel so the
// write loop stays the only writer on the connection.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.sendLimit)
	defer limiter.stop()

	for {
		_, frame, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		// Decode the envelope by hand: a frame that is not JSON gets an
		// error outbound, never a dropped connection.
		var inbound proto.Inbound
		if err := json.Unmarshal(frame, &inbound); err != nil {
			h.log.Debug().Str("client_id", client.ID).Msg("malformed inbound frame")
			h.reject(client, "", &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed JSON"})
			continue
		}

		cmd, protoErr := inboundToCommand(client, inbound)
		if protoErr != nil {
			h.log.Debug().Str("client_id", client.ID).Str("type", inbound.Type).Str("code", protoErr.Code).Msg("rejected inbound")
			h.reject(client, inbound.ID, protoErr)
			continue
		}

		if cmd.Kind == core.CommandSendMessage && !limiter.allow() {
			h.reject(client, inbound.ID, &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many messages, slow down"})
			continue
		}

		h.hub.Dispatch(cmd)
	}
}

// reject reports a rejected request: as an ack when the request carried an
// id, as a bare error event otherwise.
func (h *WSHandler) reject(client *core.Client, ackID string, protoErr *proto.Error) {
	if ackID != "" {
		client.Send(&core.Event{Kind: core.EventAck, AckID: ackID, ErrCode: protoErr.Code, Err: protoErr.Msg})
		return
	}
	client.Send(&core.Event{Kind: core.EventError, ErrCode: protoErr.Code, Err: protoErr.Msg})
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
