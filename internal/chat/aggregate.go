package chat

import (
	"sort"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/models"

	"github.com/google/uuid"
)

// BuildInbox derives the conversation and request lists from the raw message
// set. It is a pure function: it re-partitions every message on every call,
// holds no state between calls, and tolerates duplicate delivery (messages
// are deduplicated by id). Realtime consumers feed it the full message set
// rather than applying deltas, so out-of-order delivery cannot corrupt the
// derived lists.
//
// A message lands in the request bucket when it is addressed to me, is still
// flagged as a first-contact request awaiting a decision, and I do not follow
// the sender. Everything else contributes to a conversation. A sender whose
// backlog was accepted mid-stream therefore splits correctly: accepted
// messages surface as a conversation while any still-pending ones remain a
// request.
func BuildInbox(me uuid.UUID, messages []*models.Message, following map[uuid.UUID]bool) *models.Inbox {
	type group struct {
		counterparty *models.PublicProfile
		lastMessage  *models.Message
		unreadCount  int
	}
	type requestGroup struct {
		sender *models.PublicProfile
		latest *models.Message
		count  int
	}

	seen := make(map[uuid.UUID]bool, len(messages))
	conversations := make(map[uuid.UUID]*group)
	requests := make(map[uuid.UUID]*requestGroup)

	for _, msg := range messages {
		if msg == nil || seen[msg.ID] {
			continue
		}
		seen[msg.ID] = true

		if msg.ReceiverID == me && msg.PendingRequest() && !following[msg.SenderID] {
			rg, ok := requests[msg.SenderID]
			if !ok {
				rg = &requestGroup{sender: msg.Sender}
				requests[msg.SenderID] = rg
			}
			rg.count++
			if rg.latest == nil || msg.CreatedAt.After(rg.latest.CreatedAt) {
				rg.latest = msg
				if msg.Sender != nil {
					rg.sender = msg.Sender
				}
			}
			continue
		}

		counterpartyID := msg.CounterpartyID(me)
		g, ok := conversations[counterpartyID]
		if !ok {
			g = &group{}
			conversations[counterpartyID] = g
		}
		if g.lastMessage == nil || msg.CreatedAt.After(g.lastMessage.CreatedAt) {
			g.lastMessage = msg
		}
		if profile := counterpartyProfile(msg, me); profile != nil {
			g.counterparty = profile
		}
		if msg.ReceiverID == me && !msg.IsRead {
			g.unreadCount++
		}
	}

	inbox := &models.Inbox{
		Conversations: make([]*models.Conversation, 0, len(conversations)),
		Requests:      make([]*models.MessageRequest, 0, len(requests)),
	}
	for _, g := range conversations {
		inbox.Conversations = append(inbox.Conversations, &models.Conversation{
			Counterparty: g.counterparty,
			LastMessage:  g.lastMessage,
			UnreadCount:  g.unreadCount,
		})
	}
	for _, rg := range requests {
		inbox.Requests = append(inbox.Requests, &models.MessageRequest{
			Sender:        rg.sender,
			LatestMessage: rg.latest,
			MessageCount:  rg.count,
		})
	}

	sort.SliceStable(inbox.Conversations, func(i, j int) bool {
		return inbox.Conversations[i].LastMessage.CreatedAt.After(inbox.Conversations[j].LastMessage.CreatedAt)
	})
	sort.SliceStable(inbox.Requests, func(i, j int) bool {
		return inbox.Requests[i].LatestMessage.CreatedAt.After(inbox.Requests[j].LatestMessage.CreatedAt)
	})

	return inbox
}

func counterpartyProfile(msg *models.Message, me uuid.UUID) *models.PublicProfile {
	if msg.SenderID == me {
		return msg.Receiver
	}
	return msg.Sender
}
