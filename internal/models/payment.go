package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
	PaymentExpired PaymentStatus = "EXPIRED"
)

// Payment records one payment attempt against the gateway. Status only ever
// moves PENDING -> SUCCESS or PENDING -> FAILED; callbacks for a non-PENDING
// row are answered with the stored outcome. Expiry is derived from ExpiredAt
// at read time, never persisted.
type Payment struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	MerchantOrderID string        `gorm:"uniqueIndex;not null;size:64" json:"merchant_order_id"`
	UserID          uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	PackageID       uuid.UUID     `gorm:"type:uuid;not null" json:"package_id"`
	Amount          int64         `gorm:"not null" json:"amount"` // integer Rupiah
	Status          PaymentStatus `gorm:"not null;default:'PENDING';size:20;index" json:"status"`

	PaymentURL    string `gorm:"size:512" json:"payment_url"`
	Reference     string `gorm:"size:100" json:"reference"`
	PaymentMethod string `gorm:"size:30" json:"payment_method"`

	// StatusMessage carries callback diagnostics, including activation
	// failures that deliberately do not roll back a SUCCESS.
	StatusMessage string         `gorm:"size:255" json:"status_message"`
	RawCallback   datatypes.JSON `gorm:"type:jsonb" json:"-"`

	ExpiredAt      time.Time  `gorm:"not null" json:"expired_at"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	SubscriptionID *uuid.UUID `gorm:"type:uuid" json:"subscription_id,omitempty"`

	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	User      User                `gorm:"foreignKey:UserID" json:"-"`
	Package   SubscriptionPackage `gorm:"foreignKey:PackageID" json:"package,omitempty"`
}
