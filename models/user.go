package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an admin operator account for the engagement dashboard
type User struct {
	gorm.Model
	Email        string `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `json:"name"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`

	LastLoginAt *time.Time `json:"last_login_at"`
}
