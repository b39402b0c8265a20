package models

import (
	"time"

	"github.com/google/uuid"
)

// Follow is a directed follower edge.
type Follow struct {
	FollowerID  uuid.UUID `json:"followerId" db:"follower_id"`
	FollowingID uuid.UUID `json:"followingId" db:"following_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Block is a directed block edge. A block in either direction disables
// messaging and calling between the two users.
type Block struct {
	BlockerID uuid.UUID `json:"blockerId" db:"blocker_id"`
	BlockedID uuid.UUID `json:"blockedId" db:"blocked_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Relationship bundles the facts the message-request gate needs about a
// sender/receiver pair at send time. Both follow directions matter: the
// sender->receiver edge drives the send quota, while the receiver->sender
// edge decides whether a message is first contact needing approval.
type Relationship struct {
	Following            bool // sender follows receiver
	FollowedByReceiver   bool // receiver follows sender
	BlockedEitherWay     bool
	HasAcceptedThread    bool // any prior message sender->receiver was accepted
	OutboundPendingCount int  // messages sender->receiver still awaiting a decision
}
