package chat

import (
	"fmt"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/models"
)

// Gate errors distinguish the policy cause so handlers can surface a
// specific explanation instead of a generic failure.
var (
	ErrBlocked      = fmt.Errorf("messaging is unavailable for this user")
	ErrMessageLimit = fmt.Errorf("message limit reached: wait for the recipient to accept your request")
)

// Gate enforces the message-request quota for non-mutual relationships.
type Gate struct {
	Limit int // outbound pending messages allowed before the receiver must act
}

// NewGate returns a Gate with the given quota. Anything below 1 falls back
// to the historical limit of 3.
func NewGate(limit int) *Gate {
	if limit < 1 {
		limit = 3
	}
	return &Gate{Limit: limit}
}

// CanSend decides whether the sender may message the receiver, given the
// relationship facts at send time. Blocking overrides everything. Following
// the receiver, or having any previously accepted message in this direction,
// lifts the quota entirely; otherwise the sender gets Limit outbound
// messages before further sends are rejected without touching the network.
func (g *Gate) CanSend(rel models.Relationship) error {
	if rel.BlockedEitherWay {
		return ErrBlocked
	}
	if rel.Following || rel.HasAcceptedThread {
		return nil
	}
	if rel.OutboundPendingCount >= g.Limit {
		return ErrMessageLimit
	}
	return nil
}

// IsRequest reports whether a newly sent message should be flagged as a
// first-contact request: the receiver does not follow the sender and no
// prior message in this direction was accepted. The sender's own follow of
// the receiver is irrelevant here; it only affects the send quota.
func (g *Gate) IsRequest(rel models.Relationship) bool {
	return !rel.FollowedByReceiver && !rel.HasAcceptedThread
}
