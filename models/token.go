package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessToken is a shared login credential handed out to the volunteer crew.
// Anyone presenting a valid token is authorized; tokens are not tied to a
// specific user.
type AccessToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Token     string     `gorm:"uniqueIndex;not null" json:"token"`
	Name      string     `gorm:"not null" json:"name"`
	ExpiresAt *time.Time `json:"expires_at"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

// BeforeCreate fills in a random token string when none was supplied.
func (t *AccessToken) BeforeCreate(tx *gorm.DB) error {
	if t.Token == "" {
		t.Token = uuid.NewString()
	}
	return nil
}

// IsValid reports whether the token is active and not expired.
func (t *AccessToken) IsValid() bool {
	if !t.IsActive {
		return false
	}
	if t.ExpiresAt != nil && time.Now().After(*t.ExpiresAt) {
		return false
	}
	return true
}

// TokenInput is used for creating access tokens
type TokenInput struct {
	Name          string `json:"name"`
	ExpiresInDays *int   `json:"expires_in_days"`
}
