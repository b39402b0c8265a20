package user

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/models"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler exposes profile-related HTTP handlers.
type UserHandler struct {
	profileStore store.ProfileStore
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(profileStore store.ProfileStore) *UserHandler {
	return &UserHandler{profileStore: profileStore}
}

// GetUserByID returns the public profile for a user.
func (h *UserHandler) GetUserByID(c *gin.Context) {
	userIDParam := c.Param("id")

	if _, err := uuid.Parse(userIDParam); err != nil {
		log.Printf("GetUserByID: Invalid user ID format: %s, error: %v", userIDParam, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	profile, err := h.profileStore.GetProfileByID(c.Request.Context(), userIDParam)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		log.Printf("GetUserByID: Failed to get profile by ID %s: %v", userIDParam, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user information"})
		return
	}

	c.JSON(http.StatusOK, profile.ToPublicProfile())
}

// SearchUsers searches profiles by username or full name.
func (h *UserHandler) SearchUsers(c *gin.Context) {
	searchQuery := c.Query("search")
	if searchQuery == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query parameter is required"})
		return
	}

	limit := 20
	if size := c.DefaultQuery("limit", ""); size != "" {
		if parsed, err := strconv.Atoi(size); err == nil && parsed > 0 && parsed <= 50 {
			limit = parsed
		}
	}

	profiles, err := h.profileStore.SearchProfiles(c.Request.Context(), searchQuery, limit)
	if err != nil {
		log.Printf("SearchUsers: Error searching for '%s': %v", searchQuery, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error during user search"})
		return
	}

	publicProfiles := make([]*models.PublicProfile, 0, len(profiles))
	for _, profile := range profiles {
		publicProfiles = append(publicProfiles, profile.ToPublicProfile())
	}

	c.JSON(http.StatusOK, publicProfiles)
}
