package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string         `gorm:"size:100" json:"name"`
	Email             string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password          string         `gorm:"not null" json:"-"`
	Phone             string         `gorm:"size:30" json:"phone"`
	Role              string         `gorm:"size:20;default:'user'" json:"role"`
	EmailVerified     bool           `gorm:"default:false" json:"email_verified"`
	VerificationToken string         `gorm:"size:64;index" json:"-"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}
