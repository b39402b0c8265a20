package middleware

import (
	"net/http"
	"strings"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextUserIDKey is the gin context key holding the authenticated user's
// id as a uuid.UUID, set by RequireAuth.
const ContextUserIDKey = "userID"

// RequireAuth validates the bearer token and stores the authenticated user
// id in the request context. The token subject is parsed into a uuid here,
// once, so downstream handlers never deal with raw claim strings.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization header"})
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be 'Bearer <token>'"})
			return
		}

		claims, err := utils.ValidateJWT(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token carries an invalid user identity"})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// UserIDFromContext returns the authenticated user id placed by RequireAuth.
// The second return is false when the middleware did not run on this route.
func UserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := raw.(uuid.UUID)
	return userID, ok
}
