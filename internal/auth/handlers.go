package auth

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/middleware"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/models"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/store"
	"github.com/akshayrajput12/thaughtScape-sub000/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	profileStore store.ProfileStore
}

func NewAuthHandler(profileStore store.ProfileStore) *AuthHandler {
	return &AuthHandler{
		profileStore: profileStore,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Register: Bad request data: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("Register: Failed to hash password for email %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process registration"})
		return
	}

	profile := &models.Profile{
		ID:             uuid.New(),
		Username:       req.Username,
		FullName:       req.FullName,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	err = h.profileStore.CreateProfile(c.Request.Context(), profile)
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
			return
		}
		if errors.Is(err, store.ErrUsernameExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
			return
		}
		log.Printf("Register: Failed to create profile %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	token, err := utils.GenerateJWT(profile.ID)
	if err != nil {
		log.Printf("Register: Failed to generate JWT for user %s: %v", profile.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration successful, but failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    profile.ToPublicProfile(),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Login: Bad request data: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	profile, err := h.profileStore.GetProfileByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		log.Printf("Login: Failed to get profile by email %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	if !utils.CheckPasswordHash(req.Password, profile.HashedPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := utils.GenerateJWT(profile.ID)
	if err != nil {
		log.Printf("Login: Failed to generate JWT for user %s: %v", profile.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login successful, but failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    profile.ToPublicProfile(),
	})
}

func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		log.Println("GetMe: user identity missing from request context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User identity missing from request context"})
		return
	}

	profile, err := h.profileStore.GetProfileByID(c.Request.Context(), userID.String())
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			log.Printf("GetMe: Profile %s (from token) not found in DB", userID)
			c.JSON(http.StatusNotFound, gin.H{"error": "User associated with token not found"})
			return
		}
		log.Printf("GetMe: Failed to get profile by ID %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user information"})
		return
	}

	c.JSON(http.StatusOK, profile.ToPublicProfile())
}
