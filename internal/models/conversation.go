package models

// Conversation is a derived view: one entry per counterparty, carrying their
// latest message and how many of their messages are still unread. It is never
// persisted; the aggregator rebuilds it from the raw message set.
type Conversation struct {
	Counterparty *PublicProfile `json:"counterparty"`
	LastMessage  *Message       `json:"lastMessage"`
	UnreadCount  int            `json:"unreadCount"`
}

// MessageRequest groups still-pending first-contact messages from one sender,
// awaiting the receiver's accept/decline.
type MessageRequest struct {
	Sender        *PublicProfile `json:"sender"`
	LatestMessage *Message       `json:"latestMessage"`
	MessageCount  int            `json:"messageCount"`
}

// Inbox is the aggregator output rendered by the messages screen.
type Inbox struct {
	Conversations []*Conversation   `json:"conversations"`
	Requests      []*MessageRequest `json:"requests"`
}
