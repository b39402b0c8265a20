package chat

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/middleware"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/models"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/presence"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Notifier is the slice of the realtime hub the REST handlers push events
// through. The websocket hub implements it.
type Notifier interface {
	NotifyNewMessage(message *models.Message)
	NotifyMessagesRead(senderID, readerID uuid.UUID, messageIDs []uuid.UUID)
	NotifyRequestUpdate(senderID, receiverID uuid.UUID, status models.RequestStatus)
}

// RestHandler handles REST API requests for messaging and relationships.
type RestHandler struct {
	messageStore store.MessageStore
	followStore  store.FollowStore
	profileStore store.ProfileStore
	callStore    store.CallStore
	presence     *presence.Store
	gate         *Gate
	notifier     Notifier
}

// NewRestHandler creates a RestHandler.
func NewRestHandler(ms store.MessageStore, fs store.FollowStore, ps store.ProfileStore, cs store.CallStore, pr *presence.Store, gate *Gate, notifier Notifier) *RestHandler {
	return &RestHandler{
		messageStore: ms,
		followStore:  fs,
		profileStore: ps,
		callStore:    cs,
		presence:     pr,
		gate:         gate,
		notifier:     notifier,
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User identity missing from request context"})
		return uuid.Nil, false
	}
	return userID, true
}

// GetTranscript returns all messages between the current user and the given
// counterparty, ascending by created_at, and marks the counterparty's unread
// messages read (the transcript is now open on this client).
// GET /messages?with=<uuid>
func (h *RestHandler) GetTranscript(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}

	withStr := c.Query("with")
	if withStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "with query parameter is required"})
		return
	}
	counterparty, err := uuid.Parse(withStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid with parameter format"})
		return
	}

	messages, err := h.messageStore.ListMessagesBetween(c.Request.Context(), me, counterparty)
	if err != nil {
		log.Printf("GetTranscript: Failed to list messages between %s and %s: %v", me, counterparty, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}

	readIDs, err := h.messageStore.MarkConversationRead(c.Request.Context(), counterparty, me)
	if err != nil {
		// The transcript itself loaded; a failed read-flip is not fatal.
		log.Printf("GetTranscript: Failed to mark conversation read for %s: %v", me, err)
	} else if len(readIDs) > 0 {
		h.notifier.NotifyMessagesRead(counterparty, me, readIDs)
		readSet := make(map[uuid.UUID]bool, len(readIDs))
		for _, id := range readIDs {
			readSet[id] = true
		}
		for _, msg := range messages {
			if readSet[msg.ID] {
				msg.IsRead = true
			}
		}
	}

	c.JSON(http.StatusOK, messages)
}

// GetConversations derives the conversation and request lists for the
// current user. GET /conversations
func (h *RestHandler) GetConversations(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}

	messages, err := h.messageStore.ListInboxMessages(c.Request.Context(), me)
	if err != nil {
		log.Printf("GetConversations: Failed to list inbox for %s: %v", me, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve conversations"})
		return
	}
	following, err := h.followStore.FollowingSet(c.Request.Context(), me)
	if err != nil {
		log.Printf("GetConversations: Failed to load following set for %s: %v", me, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve conversations"})
		return
	}

	c.JSON(http.StatusOK, BuildInbox(me, messages, following))
}

// SendMessage validates, applies the request gate, stores the message, and
// fans it out over the realtime channel.
// POST /messages
func (h *RestHandler) SendMessage(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message content cannot be empty"})
		return
	}
	if req.ReceiverID == me {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot send a message to yourself"})
		return
	}

	rel, err := h.loadRelationship(c, me, req.ReceiverID)
	if err != nil {
		log.Printf("SendMessage: Failed to load relationship %s -> %s: %v", me, req.ReceiverID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	if err := h.gate.CanSend(rel); err != nil {
		switch {
		case errors.Is(err, ErrBlocked):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, ErrMessageLimit):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		}
		return
	}

	message := &models.Message{
		ID:         uuid.New(),
		SenderID:   me,
		ReceiverID: req.ReceiverID,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	if h.gate.IsRequest(rel) {
		pending := models.RequestPending
		message.IsRequest = true
		message.RequestStatus = &pending
	}

	if err := h.messageStore.CreateMessage(c.Request.Context(), message); err != nil {
		log.Printf("SendMessage: Failed to store message from %s: %v", me, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	// Re-fetch with profiles attached so both the ack and the broadcast
	// carry sender details.
	stored, err := h.messageStore.GetMessageByID(c.Request.Context(), message.ID)
	if err != nil {
		log.Printf("SendMessage: Could not re-fetch message %s: %v", message.ID, err)
		stored = message
	}

	h.notifier.NotifyNewMessage(stored)

	c.JSON(http.StatusCreated, models.SendMessageAck{
		ClientTempID: req.ClientTempID,
		Message:      stored,
		ServerMsgID:  stored.ID,
	})
}

func (h *RestHandler) loadRelationship(c *gin.Context, me, receiverID uuid.UUID) (models.Relationship, error) {
	ctx := c.Request.Context()
	var rel models.Relationship
	var err error

	if rel.BlockedEitherWay, err = h.followStore.IsBlockedEither(ctx, me, receiverID); err != nil {
		return rel, err
	}
	if rel.Following, err = h.followStore.IsFollowing(ctx, me, receiverID); err != nil {
		return rel, err
	}
	if rel.FollowedByReceiver, err = h.followStore.IsFollowing(ctx, receiverID, me); err != nil {
		return rel, err
	}
	if rel.HasAcceptedThread, err = h.messageStore.HasAcceptedThread(ctx, me, receiverID); err != nil {
		return rel, err
	}
	if rel.OutboundPendingCount, err = h.messageStore.CountOutboundPending(ctx, me, receiverID); err != nil {
		return rel, err
	}
	return rel, nil
}

// DecideRequest accepts or declines a sender's whole pending backlog.
// POST /requests/:senderId  body: {"status": "accepted" | "declined"}
func (h *RestHandler) DecideRequest(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}

	senderID, err := uuid.Parse(c.Param("senderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sender ID format"})
		return
	}

	var req models.RequestDecision
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	updated, err := h.messageStore.UpdateRequestStatus(c.Request.Context(), senderID, me, req.Status)
	if err != nil {
		log.Printf("DecideRequest: Failed to update request status %s -> %s: %v", senderID, me, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update request"})
		return
	}

	if updated > 0 {
		h.notifier.NotifyRequestUpdate(senderID, me, req.Status)
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated, "status": req.Status})
}

// FollowUser creates a follow edge. Following a sender implicitly accepts
// their pending message requests.
// POST /users/:id/follow
func (h *RestHandler) FollowUser(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}
	target, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	if err := h.followStore.Follow(c.Request.Context(), me, target); err != nil {
		if errors.Is(err, store.ErrSelfFollow) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("FollowUser: Failed to follow %s: %v", target, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to follow user"})
		return
	}

	updated, err := h.messageStore.UpdateRequestStatus(c.Request.Context(), target, me, models.RequestAccepted)
	if err != nil {
		log.Printf("FollowUser: Failed to accept pending requests from %s: %v", target, err)
	} else if updated > 0 {
		h.notifier.NotifyRequestUpdate(target, me, models.RequestAccepted)
	}

	c.JSON(http.StatusOK, gin.H{"following": true})
}

// UnfollowUser removes a follow edge. POST /users/:id/unfollow
func (h *RestHandler) UnfollowUser(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}
	target, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	if err := h.followStore.Unfollow(c.Request.Context(), me, target); err != nil {
		log.Printf("UnfollowUser: Failed to unfollow %s: %v", target, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unfollow user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

// BlockUser creates a block edge, which disables messaging and calling in
// both directions. POST /users/:id/block
func (h *RestHandler) BlockUser(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}
	target, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	if err := h.followStore.Block(c.Request.Context(), me, target); err != nil {
		if errors.Is(err, store.ErrSelfBlock) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("BlockUser: Failed to block %s: %v", target, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to block user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": true})
}

// UnblockUser removes a block edge. POST /users/:id/unblock
func (h *RestHandler) UnblockUser(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}
	target, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	if err := h.followStore.Unblock(c.Request.Context(), me, target); err != nil {
		log.Printf("UnblockUser: Failed to unblock %s: %v", target, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unblock user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": false})
}

// GetComposerState reports why (or whether) the composer towards a user is
// disabled, as a pure function of the relationship. GET /users/:id/composer
func (h *RestHandler) GetComposerState(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}
	target, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	rel, err := h.loadRelationship(c, me, target)
	if err != nil {
		log.Printf("GetComposerState: Failed to load relationship %s -> %s: %v", me, target, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load relationship"})
		return
	}

	state := gin.H{
		"canSend":      true,
		"canCall":      !rel.BlockedEitherWay,
		"isFollowing":  rel.Following,
		"pendingCount": rel.OutboundPendingCount,
	}
	if err := h.gate.CanSend(rel); err != nil {
		state["canSend"] = false
		state["reason"] = err.Error()
	}
	c.JSON(http.StatusOK, state)
}

// GetRecentCalls returns the user's call log. GET /calls
func (h *RestHandler) GetRecentCalls(c *gin.Context) {
	me, ok := currentUserID(c)
	if !ok {
		return
	}

	calls, err := h.callStore.ListRecentCalls(c.Request.Context(), me, 50)
	if err != nil {
		log.Printf("GetRecentCalls: Failed for %s: %v", me, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve calls"})
		return
	}
	c.JSON(http.StatusOK, calls)
}

// GetPresence returns a user's online/last-seen state.
// GET /users/:id/presence
func (h *RestHandler) GetPresence(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	target, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	status, err := h.presence.Get(c.Request.Context(), target)
	if err != nil {
		log.Printf("GetPresence: Failed for %s: %v", target, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve presence"})
		return
	}
	c.JSON(http.StatusOK, status)
}
