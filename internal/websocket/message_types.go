package websocket

import (
	"github.com/akshayrajput12/thaughtScape-sub000/internal/models"

	"github.com/google/uuid"
)

// WebSocket message types. Outbound types mirror row-change events on the
// messages table plus the per-user call signaling channel; inbound types are
// the few actions clients perform over the socket instead of REST.
const (
	// server -> client
	MessageTypeNewMessage    = "message_new"          // a message row was inserted for you
	MessageTypeMessagesRead  = "messages_read"        // your sent messages were marked read
	MessageTypeRequestUpdate = "request_update"       // a request backlog was accepted/declined
	MessageTypeInboxRefresh  = "conversation_refresh" // advice to refetch conversations (sent on attach)
	MessageTypeCallSignal    = "call_signal"          // offer/answer/candidate/reject/hangup relay
	MessageTypeError         = "error"

	// client -> server
	MessageTypeMarkRead = "mark_read"
)

// WebSocketMessage is the generic envelope for all socket traffic. Type
// determines how Payload is interpreted.
type WebSocketMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// MarkReadPayload asks the server to flip read flags. With MessageID set, a
// single message is marked; with SenderID set, every unread message from
// that sender to the caller is marked (the open-transcript case).
type MarkReadPayload struct {
	MessageID *uuid.UUID `json:"messageId,omitempty"`
	SenderID  *uuid.UUID `json:"senderId,omitempty"`
}

// MessagesReadPayload notifies a sender which of their messages were read.
type MessagesReadPayload struct {
	ReaderID   uuid.UUID       `json:"readerId"`
	MessageIDs []uuid.UUID     `json:"messageIds"`
	Timestamp  models.JSONTime `json:"timestamp"`
}

// RequestUpdatePayload notifies both parties that a request backlog was
// resolved.
type RequestUpdatePayload struct {
	SenderID   uuid.UUID            `json:"senderId"`
	ReceiverID uuid.UUID            `json:"receiverId"`
	Status     models.RequestStatus `json:"status"`
	Timestamp  models.JSONTime      `json:"timestamp"`
}

// ErrorPayload is used for sending error details over WebSocket.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}
