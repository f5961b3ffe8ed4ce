package http

import (
	"encoding/json"
	"time"

	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/proto"
)

// inboundToCommand maps a wire envelope onto a core command. Shape problems
// (malformed JSON, unknown type, out-of-bounds paging) come back as a
// protocol error; semantic validation happens in the hub before any side
// effect.
func inboundToCommand(client *core.Client, inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoinRoom:
		var join proto.JoinRoomData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed join_room payload"}
		}
		return &core.Command{
			Kind:   core.CommandJoinRoom,
			Client: client,
			AckID:  inbound.ID,
			Join: core.JoinPayload{
				Nick:   join.Nick,
				RoomID: join.RoomID,
			},
		}, nil
	case proto.InboundTypeSendMessage:
		var send proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &send); err != nil {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed send_message payload"}
		}
		return &core.Command{
			Kind:   core.CommandSendMessage,
			Client: client,
			AckID:  inbound.ID,
			Send: core.SendPayload{
				Content:    send.Content,
				SenderNick: send.SenderNick,
				RoomID:     send.RoomID,
			},
		}, nil
	case proto.InboundTypeLoadMoreMessages:
		var more proto.LoadMoreMessagesData
		if err := json.Unmarshal(inbound.Data, &more); err != nil {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed load_more_messages payload"}
		}
		limit := 0
		if more.Limit != nil {
			limit = *more.Limit
			if limit < 1 || limit > core.MaxHistoryLimit {
				return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "limit must be between 1 and 100"}
			}
		}
		if more.Offset < 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "offset must not be negative"}
		}
		return &core.Command{
			Kind:   core.CommandLoadMoreMessages,
			Client: client,
			AckID:  inbound.ID,
			LoadMore: core.LoadMorePayload{
				RoomID: more.RoomID,
				Offset: more.Offset,
				Limit:  limit,
			},
		}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}
	}
}

// outboundFromEvent maps a core event onto a wire envelope.
func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventUserList:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserListUpdate,
			Data:  proto.UserListUpdate{Users: usersToWire(event.Users)},
		}
	case core.EventHistory:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventLoadHistory,
			Data:  messagesToWire(event.History),
		}
	case core.EventUserMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventReceiveMessage,
			Data:  userMessageToWire(event.Message),
		}
	case core.EventSystemMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventReceiveMessage,
			Data:  systemMessageToWire(event.System),
		}
	case core.EventMoreHistory:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventLoadMoreMessagesResponse,
			Data: proto.LoadMoreMessagesResponse{
				Messages: messagesToWire(event.More.Messages),
				HasMore:  event.More.HasMore,
			},
		}
	case core.EventAck:
		out := proto.Outbound{Type: proto.OutboundTypeAck, ID: event.AckID}
		if event.Err != "" {
			code := event.ErrCode
			if code == "" {
				code = core.ErrCodeBadRequest
			}
			out.Error = &proto.Error{Code: code, Msg: event.Err}
		}
		return out
	case core.EventError:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.ErrCode, Msg: event.Err},
		}
	default:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unmapped event"},
		}
	}
}

func usersToWire(users []core.OnlineUser) []proto.OnlineUser {
	wire := make([]proto.OnlineUser, len(users))
	for i, u := range users {
		wire[i] = proto.OnlineUser{ID: u.ID, Nick: u.Nick, RoomID: u.RoomID}
	}
	return wire
}

func userMessageToWire(m *core.Message) proto.WireMessage {
	isGlobal := m.IsGlobal
	return proto.WireMessage{
		ID:         m.ID,
		Type:       proto.MessageTypeUser,
		Content:    m.Content,
		SenderNick: m.SenderNick,
		RoomID:     m.RoomID,
		IsGlobal:   &isGlobal,
		CreatedAt:  m.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  m.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func systemMessageToWire(m *core.SystemMessage) proto.WireMessage {
	return proto.WireMessage{
		ID:        m.ID,
		Type:      proto.MessageTypeSystem,
		Content:   m.Content,
		RoomID:    m.RoomID,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func messagesToWire(messages []*core.Message) []proto.WireMessage {
	wire := make([]proto.WireMessage, len(messages))
	for i, m := range messages {
		wire[i] = userMessageToWire(m)
	}
	return wire
}
