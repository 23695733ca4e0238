package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name    string    `gorm:"not null;size:100" json:"name"`
	Address string    `gorm:"size:255" json:"address"`
	Phone   string    `gorm:"size:30" json:"phone"`

	// TaxPercent is applied to every sale's subtotal (e.g. 11 for 11% PPN).
	TaxPercent int64 `gorm:"default:0" json:"tax_percent"`

	// InvoiceCounter is only ever advanced with an atomic UPDATE ... RETURNING
	// inside the sale transaction; never read-modify-write it in Go.
	InvoiceCounter int64 `gorm:"default:0" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Owner     User           `gorm:"foreignKey:OwnerID" json:"-"`
}

type StoreMember struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_store_members_store_user" json:"store_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_store_members_store_user" json:"user_id"`
	Role      string    `gorm:"size:20;default:'cashier'" json:"role"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Store     Store     `gorm:"foreignKey:StoreID" json:"-"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}

func (m *StoreMember) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
