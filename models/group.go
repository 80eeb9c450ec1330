package models

import (
	"time"

	"gorm.io/gorm"
)

// Group is a set of volunteers who want to work shifts together. Adding a
// group to a shift flattens its current members into the shift's user list.
type Group struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"uniqueIndex;not null" json:"name"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	Users     []User         `gorm:"foreignKey:GroupID" json:"users,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type GroupInput struct {
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}
