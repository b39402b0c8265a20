package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile represents an application user.
type Profile struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	FullName       string    `json:"fullName" db:"full_name"`
	Email          string    `json:"email" db:"email"`
	AvatarURL      *string   `json:"avatarUrl,omitempty" db:"avatar_url"`
	WhatsappNumber *string   `json:"whatsappNumber,omitempty" db:"whatsapp_number"`
	HashedPassword string    `json:"-" db:"hashed_password"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// PublicProfile is the safe representation returned via APIs.
type PublicProfile struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	FullName       string    `json:"fullName"`
	AvatarURL      *string   `json:"avatarUrl,omitempty"`
	WhatsappNumber *string   `json:"whatsappNumber,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (p *Profile) ToPublicProfile() *PublicProfile {
	return &PublicProfile{
		ID:             p.ID,
		Username:       p.Username,
		FullName:       p.FullName,
		AvatarURL:      p.AvatarURL,
		WhatsappNumber: p.WhatsappNumber,
		CreatedAt:      p.CreatedAt,
	}
}

// RegisterRequest captures registration input.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	FullName string `json:"fullName" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginRequest captures login input.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}
