package chat

import (
	"testing"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateCanSend(t *testing.T) {
	gate := NewGate(3)

	tests := []struct {
		name    string
		rel     models.Relationship
		wantErr error
	}{
		{
			name:    "first message to a stranger",
			rel:     models.Relationship{},
			wantErr: nil,
		},
		{
			name:    "under the pending quota",
			rel:     models.Relationship{OutboundPendingCount: 2},
			wantErr: nil,
		},
		{
			name:    "quota exhausted",
			rel:     models.Relationship{OutboundPendingCount: 3},
			wantErr: ErrMessageLimit,
		},
		{
			name:    "well past the quota",
			rel:     models.Relationship{OutboundPendingCount: 10},
			wantErr: ErrMessageLimit,
		},
		{
			name:    "following lifts the quota",
			rel:     models.Relationship{Following: true, OutboundPendingCount: 10},
			wantErr: nil,
		},
		{
			name:    "accepted thread lifts the quota",
			rel:     models.Relationship{HasAcceptedThread: true, OutboundPendingCount: 10},
			wantErr: nil,
		},
		{
			name:    "block overrides following",
			rel:     models.Relationship{Following: true, BlockedEitherWay: true},
			wantErr: ErrBlocked,
		},
		{
			name:    "block overrides accepted thread",
			rel:     models.Relationship{HasAcceptedThread: true, BlockedEitherWay: true},
			wantErr: ErrBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.CanSend(tt.rel)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestGateIsRequest(t *testing.T) {
	gate := NewGate(3)

	assert.True(t, gate.IsRequest(models.Relationship{}))
	assert.False(t, gate.IsRequest(models.Relationship{FollowedByReceiver: true}))
	assert.False(t, gate.IsRequest(models.Relationship{HasAcceptedThread: true}))

	// The request flag depends on the receiver-to-sender follow edge only.
	// A sender who follows the receiver is still a stranger to them.
	assert.True(t, gate.IsRequest(models.Relationship{Following: true}))
	assert.False(t, gate.IsRequest(models.Relationship{Following: false, FollowedByReceiver: true}))
}

// First contact from a sender who follows the receiver must still go through
// the approval workflow: the message gets flagged, and the receiver (who
// follows nobody) sees it under requests, not conversations.
func TestFirstContactFromFollowerIsStillARequest(t *testing.T) {
	gate := NewGate(3)
	me := uuid.New()
	sender := uuid.New()

	rel := models.Relationship{Following: true}
	require.True(t, gate.IsRequest(rel))

	msg := newMsg(sender, me, 0, unread())
	pending := models.RequestPending
	msg.IsRequest = true
	msg.RequestStatus = &pending

	inbox := BuildInbox(me, []*models.Message{msg}, map[uuid.UUID]bool{})
	assert.Empty(t, inbox.Conversations)
	require.Len(t, inbox.Requests, 1)
	assert.Equal(t, sender, inbox.Requests[0].LatestMessage.SenderID)
}

// The mirror case: when the receiver already follows the sender, messages are
// not flagged, so no pending backlog accumulates and no quota can bite.
func TestMessageToFollowerOfSenderIsNotARequest(t *testing.T) {
	gate := NewGate(3)
	me := uuid.New()
	sender := uuid.New()

	rel := models.Relationship{FollowedByReceiver: true}
	require.False(t, gate.IsRequest(rel))
	assert.NoError(t, gate.CanSend(rel))

	msg := newMsg(sender, me, 0, unread())
	inbox := BuildInbox(me, []*models.Message{msg}, map[uuid.UUID]bool{sender: true})
	assert.Empty(t, inbox.Requests)
	require.Len(t, inbox.Conversations, 1)
}

func TestNewGateFallsBackToDefaultLimit(t *testing.T) {
	assert.Equal(t, 3, NewGate(0).Limit)
	assert.Equal(t, 3, NewGate(-5).Limit)
	assert.Equal(t, 7, NewGate(7).Limit)
}
