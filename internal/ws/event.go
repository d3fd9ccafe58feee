package ws

import (
	"encoding/json"

	"wavechat/internal/domain"
)

// Client -> server events.
const (
	EvtConversationJoin    = "conversation.join"
	EvtConversationLeave   = "conversation.leave"
	EvtMessageSend         = "message.send"
	EvtMessageDeliver      = "message.deliver"
	EvtMessageRead         = "message.read"
	EvtMessageReact        = "message.react"
	EvtMessageReactDelete  = "message.react.delete"
	EvtMessageEdit         = "message.edit"
	EvtMessageDeleteForMe  = "message.delete.for.me"
	EvtMessageDeleteForAll = "message.delete.for.all"
	EvtTypingStart         = "typing.start"
	EvtTypingStop          = "typing.stop"
)

// Server -> client events. typing.start/stop and message.read are broadcast
// under the same names as the requests that triggered them.
const (
	EvtAck               = "ack"
	EvtAuthError         = "auth.error"
	EvtMessageSent       = "message.sent"
	EvtMessageDelivered  = "message.delivered"
	EvtMessageReacted    = "message.reacted"
	EvtMessageReactDltd  = "message.react.deleted"
	EvtMessageEdited     = "message.edited"
	EvtMessageDeletedAll = "message.deleted.for.all"
)

// Envelope is a client -> server frame. ID is an optional correlation id
// echoed back in the ack.
type Envelope struct {
	Event string          `json:"event"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Ack is the structured response returned to the event's original caller,
// distinct from room broadcasts.
type Ack struct {
	Event   string `json:"event"`
	ID      string `json:"id,omitempty"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Push is a server-initiated frame: a room broadcast or an error emission.
type Push struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type conversationPayload struct {
	ConversationID int64 `json:"conversationId"`
}

type sendPayload struct {
	ConversationID   int64              `json:"conversationId"`
	Content          string             `json:"content"`
	Type             domain.ContentType `json:"type,omitempty"`
	Metadata         map[string]any     `json:"metadata,omitempty"`
	ReplyToMessageID *int64             `json:"replyToMessageId,omitempty"`
	TempID           string             `json:"tempId,omitempty"`
	IsForwarded      bool               `json:"isForwarded,omitempty"`
}

type messageRefPayload struct {
	ConversationID int64 `json:"conversationId"`
	MessageID      int64 `json:"messageId"`
}

type reactPayload struct {
	ConversationID int64  `json:"conversationId"`
	MessageID      int64  `json:"messageId"`
	Emoji          string `json:"emoji,omitempty"`
}

type editPayload struct {
	ConversationID int64  `json:"conversationId"`
	MessageID      int64  `json:"messageId"`
	Content        string `json:"content"`
}

type typingEvent struct {
	AccountID      int64 `json:"accountId"`
	ConversationID int64 `json:"conversationId"`
}
