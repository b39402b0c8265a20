package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus tracks the lifecycle of a first-contact message request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// Message represents a directed message persisted to storage.
type Message struct {
	ID         uuid.UUID `json:"id" db:"id"`
	SenderID   uuid.UUID `json:"senderId" db:"sender_id"`
	ReceiverID uuid.UUID `json:"receiverId" db:"receiver_id"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	IsRead     bool      `json:"isRead" db:"is_read"`
	IsRequest  bool      `json:"isRequest" db:"is_request"`

	// RequestStatus is nil for ordinary chat messages; it is set only while
	// the first-contact request workflow applies.
	RequestStatus *RequestStatus `json:"requestStatus,omitempty" db:"request_status"`

	Sender   *PublicProfile `json:"sender,omitempty" db:"-"`
	Receiver *PublicProfile `json:"receiver,omitempty" db:"-"`
}

// PendingRequest reports whether this message still awaits the receiver's decision.
// A null status on a request message counts as pending.
func (m *Message) PendingRequest() bool {
	if !m.IsRequest {
		return false
	}
	return m.RequestStatus == nil || *m.RequestStatus == RequestPending
}

// CounterpartyID returns the other participant relative to me.
func (m *Message) CounterpartyID(me uuid.UUID) uuid.UUID {
	if m.SenderID == me {
		return m.ReceiverID
	}
	return m.SenderID
}

// SendMessageRequest defines the payload for sending a message.
type SendMessageRequest struct {
	ReceiverID uuid.UUID `json:"receiverId" binding:"required"`
	Content    string    `json:"content" binding:"required,max=4096"`
	// Client-generated ID used to reconcile the optimistic copy with the stored row.
	ClientTempID *string `json:"clientTempId,omitempty"`
}

// SendMessageAck confirms a stored message back to the sender.
type SendMessageAck struct {
	ClientTempID *string   `json:"clientTempId,omitempty"`
	Message      *Message  `json:"message"`
	ServerMsgID  uuid.UUID `json:"serverMsgId"`
}

// RequestDecision captures an accept/decline action on a message request.
type RequestDecision struct {
	Status RequestStatus `json:"status" binding:"required,oneof=accepted declined"`
}
