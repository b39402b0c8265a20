package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/call"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/models"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/presence"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/store"

	"github.com/google/uuid"
)

// Hub maintains the per-user client map and fans realtime events out to it.
// It serves two channels at once: row-change notifications for the messages
// table, and the per-user broadcast channel that call signaling rides on.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	clientsMux sync.RWMutex

	processMessage chan HubMessage
	register       chan *Client
	unregister     chan *Client

	messageStore store.MessageStore
	presence     *presence.Store
	registry     *call.Registry
}

// NewHub returns a Hub wired to the provided stores. The call registry is
// attached afterwards via SetCallRegistry because it needs the hub as its
// signal transport.
func NewHub(ms store.MessageStore, ps *presence.Store) *Hub {
	return &Hub{
		clients:        make(map[uuid.UUID]map[*Client]bool),
		processMessage: make(chan HubMessage),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		messageStore:   ms,
		presence:       ps,
	}
}

// SetCallRegistry attaches the call signaling registry. Must be called
// before Run.
func (h *Hub) SetCallRegistry(r *call.Registry) {
	h.registry = r
}

// Run processes hub events until the process exits.
func (h *Hub) Run() {
	log.Println("WebSocket Hub: Starting...")
	for {
		select {
		case client := <-h.register:
			h.clientsMux.Lock()
			if _, ok := h.clients[client.userID]; !ok {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			total := len(h.clients[client.userID])
			h.clientsMux.Unlock()
			log.Printf("WebSocket Hub: Client registered (User: %s). Total for user: %d", client.userID, total)

			if h.presence != nil {
				if err := h.presence.SetOnline(context.Background(), client.userID); err != nil {
					log.Printf("WebSocket Hub: Failed to set presence for user %s: %v", client.userID, err)
				}
			}
			// A fresh attach may follow a realtime gap; advise the client to
			// refetch its conversation state wholesale rather than trust
			// buffered events.
			client.SendMessage(MessageTypeInboxRefresh, nil)

		case client := <-h.unregister:
			h.clientsMux.Lock()
			lastForUser := false
			if userClients, ok := h.clients[client.userID]; ok {
				if _, clientExists := userClients[client]; clientExists {
					close(client.send)
					delete(userClients, client)
					if len(userClients) == 0 {
						delete(h.clients, client.userID)
						lastForUser = true
					}
					log.Printf("WebSocket Hub: Client unregistered (User: %s). Remaining for user: %d", client.userID, len(userClients))
				}
			}
			h.clientsMux.Unlock()

			if lastForUser {
				if h.presence != nil {
					if err := h.presence.SetOffline(context.Background(), client.userID); err != nil {
						log.Printf("WebSocket Hub: Failed to clear presence for user %s: %v", client.userID, err)
					}
				}
				if h.registry != nil {
					h.registry.ReleaseUser(client.userID)
				}
			}

		case hubMsg := <-h.processMessage:
			h.handleIncomingMessage(hubMsg.client, hubMsg.rawJSON)
		}
	}
}

func (h *Hub) handleIncomingMessage(senderClient *Client, rawJSON []byte) {
	var wsMsg WebSocketMessage
	if err := json.Unmarshal(rawJSON, &wsMsg); err != nil {
		log.Printf("WebSocket Hub: Error unmarshalling message from User %s: %v. Raw: %s", senderClient.userID, err, string(rawJSON))
		senderClient.SendMessage(MessageTypeError, ErrorPayload{Message: "Invalid message format"})
		return
	}

	ctx := context.Background()

	switch wsMsg.Type {
	case MessageTypeMarkRead:
		var payload MarkReadPayload
		payloadBytes, _ := json.Marshal(wsMsg.Payload)
		if err := json.Unmarshal(payloadBytes, &payload); err != nil {
			senderClient.SendMessage(MessageTypeError, ErrorPayload{Message: "Invalid mark_read payload"})
			return
		}
		h.handleMarkRead(ctx, senderClient, payload)

	case MessageTypeCallSignal:
		if h.registry == nil {
			senderClient.SendMessage(MessageTypeError, ErrorPayload{Message: "Calling is not available"})
			return
		}
		var sig call.Signal
		payloadBytes, _ := json.Marshal(wsMsg.Payload)
		if err := json.Unmarshal(payloadBytes, &sig); err != nil {
			senderClient.SendMessage(MessageTypeError, ErrorPayload{Message: "Invalid call_signal payload"})
			return
		}
		h.registry.HandleSignal(senderClient.userID, &sig)

	default:
		log.Printf("WebSocket Hub: Unknown message type '%s' from User %s", wsMsg.Type, senderClient.userID)
		senderClient.SendMessage(MessageTypeError, ErrorPayload{Message: "Unknown message type"})
	}
}

// handleMarkRead flips read flags on behalf of the receiver and notifies the
// original sender's clients. Only the receiver of a message may mark it read,
// which holds by construction here: we only touch rows addressed to the
// calling client.
func (h *Hub) handleMarkRead(ctx context.Context, senderClient *Client, payload MarkReadPayload) {
	switch {
	case payload.SenderID != nil:
		ids, err := h.messageStore.MarkConversationRead(ctx, *payload.SenderID, senderClient.userID)
		if err != nil {
			log.Printf("WebSocket Hub (MarkRead): Failed for user %s: %v", senderClient.userID, err)
			senderClient.SendMessage(MessageTypeError, ErrorPayload{Message: "Failed to mark messages read"})
			return
		}
		if len(ids) > 0 {
			h.NotifyMessagesRead(*payload.SenderID, senderClient.userID, ids)
		}

	case payload.MessageID != nil:
		msg, err := h.messageStore.GetMessageByID(ctx, *payload.MessageID)
		if err != nil {
			senderClient.SendMessage(MessageTypeError, ErrorPayload{Message: "Message not found"})
			return
		}
		if msg.ReceiverID != senderClient.userID {
			senderClient.SendMessage(MessageTypeError, ErrorPayload{Message: "Only the receiver may mark a message read"})
			return
		}
		if err := h.messageStore.MarkRead(ctx, *payload.MessageID); err != nil {
			log.Printf("WebSocket Hub (MarkRead): Failed for message %s: %v", *payload.MessageID, err)
			senderClient.SendMessage(MessageTypeError, ErrorPayload{Message: "Failed to mark message read"})
			return
		}
		h.NotifyMessagesRead(msg.SenderID, senderClient.userID, []uuid.UUID{msg.ID})

	default:
		senderClient.SendMessage(MessageTypeError, ErrorPayload{Message: "mark_read requires messageId or senderId"})
	}
}

// NotifyNewMessage fans a stored message out to the receiver's clients and
// to the sender's other clients (so their other tabs stay consistent).
func (h *Hub) NotifyNewMessage(message *models.Message) {
	h.BroadcastToUser(message.ReceiverID, MessageTypeNewMessage, message)
	h.BroadcastToUser(message.SenderID, MessageTypeNewMessage, message)
}

// NotifyMessagesRead tells the original sender which messages were read.
func (h *Hub) NotifyMessagesRead(senderID, readerID uuid.UUID, messageIDs []uuid.UUID) {
	payload := MessagesReadPayload{
		ReaderID:   readerID,
		MessageIDs: messageIDs,
		Timestamp:  models.JSONTime(time.Now()),
	}
	h.BroadcastToUser(senderID, MessageTypeMessagesRead, payload)
	h.BroadcastToUser(readerID, MessageTypeMessagesRead, payload)
}

// NotifyRequestUpdate tells both parties that a request backlog was resolved.
func (h *Hub) NotifyRequestUpdate(senderID, receiverID uuid.UUID, status models.RequestStatus) {
	payload := RequestUpdatePayload{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     status,
		Timestamp:  models.JSONTime(time.Now()),
	}
	h.BroadcastToUser(senderID, MessageTypeRequestUpdate, payload)
	h.BroadcastToUser(receiverID, MessageTypeRequestUpdate, payload)
}

// SendCallSignal implements call.SignalSender over the per-user channel.
func (h *Hub) SendCallSignal(userID uuid.UUID, sig *call.Signal) {
	h.BroadcastToUser(userID, MessageTypeCallSignal, sig)
}

// BroadcastToUser sends a message to all connected clients for a user.
func (h *Hub) BroadcastToUser(userID uuid.UUID, msgType string, payload interface{}) {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	if userClients, found := h.clients[userID]; found {
		for client := range userClients {
			client.SendMessage(msgType, payload)
		}
	}
}
