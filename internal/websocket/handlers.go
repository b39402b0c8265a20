package websocket

import (
	"log"
	"net/http"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// upgrader is used to upgrade HTTP connections to WebSocket connections.
// CheckOrigin allows all origins for development; production deployments
// should restrict this to the frontend's origin.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler handles WebSocket connection requests.
type WSHandler struct {
	hub *Hub
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
	}
}

// HandleWebSocketConnection upgrades HTTP GET requests to WebSocket
// connections. It expects a JWT as a query parameter (/ws?token=...),
// because browsers cannot set headers on websocket upgrades.
func (h *WSHandler) HandleWebSocketConnection(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		log.Println("WS Handler: Missing token in query parameter")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims, err := utils.ValidateJWT(tokenString)
	if err != nil {
		log.Printf("WS Handler: Invalid token: %v", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		log.Printf("WS Handler: Invalid UserID in token claims: %v", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WS Handler: Failed to upgrade connection for user %s: %v", userID, err)
		return
	}
	log.Printf("WS Handler: Connection upgraded for user %s from %s", userID, conn.RemoteAddr())

	client := NewClient(h.hub, conn, userID)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}
