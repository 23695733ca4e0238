package models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionTrial     SubscriptionStatus = "TRIAL"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

// SubscriptionPackage is a catalog entry. Rows referenced by live
// subscriptions are never deleted, only soft-disabled via IsActive.
type SubscriptionPackage struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"not null;size:50;uniqueIndex" json:"name"`
	DisplayName  string    `gorm:"size:100" json:"display_name"`
	Price        int64     `gorm:"not null" json:"price"` // integer Rupiah
	DurationDays int       `gorm:"not null;default:30" json:"duration_days"`
	MaxStores    int       `gorm:"not null;default:1" json:"max_stores"`
	MaxMembers   int       `gorm:"not null;default:2" json:"max_members"`
	MaxUsers     int       `gorm:"not null;default:3" json:"max_users"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Subscription entitles one user to the limits of one package. At most one
// row per user may be ACTIVE/TRIAL with end_date in the future.
type Subscription struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	PackageID uuid.UUID          `gorm:"type:uuid;not null" json:"package_id"`
	Status    SubscriptionStatus `gorm:"not null;default:'ACTIVE';size:20;index" json:"status"`
	StartDate time.Time          `gorm:"not null" json:"start_date"`
	EndDate   time.Time          `gorm:"not null;index" json:"end_date"`

	IsNewUserPromo bool `gorm:"default:false" json:"is_new_user_promo"`
	PaidMonths     int  `gorm:"default:1" json:"paid_months"`
	BonusMonths    int  `gorm:"default:0" json:"bonus_months"`
	TotalMonths    int  `gorm:"default:1" json:"total_months"`

	FirstReminderSent  bool `gorm:"default:false" json:"-"`
	SecondReminderSent bool `gorm:"default:false" json:"-"`

	CancelledAt *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	User        User                `gorm:"foreignKey:UserID" json:"-"`
	Package     SubscriptionPackage `gorm:"foreignKey:PackageID" json:"package,omitempty"`
}
