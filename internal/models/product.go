package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"store_id"`
	Name      string           `gorm:"not null;size:150" json:"name"`
	ImageURL  string           `gorm:"size:512" json:"image_url"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`
	Variants  []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

// ProductVariant carries stock and pricing. DiscountPercent and DiscountRp
// are mutually exclusive; DiscountRp < Price and CapitalPrice <= Price.
type ProductVariant struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID       uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Name            string    `gorm:"size:100" json:"name"`
	Price           int64     `gorm:"not null" json:"price"`
	CapitalPrice    int64     `gorm:"default:0" json:"capital_price"`
	Quantity        int64     `gorm:"not null;default:0" json:"quantity"`
	DiscountPercent int64     `gorm:"default:0" json:"discount_percent"`
	DiscountRp      int64     `gorm:"default:0" json:"discount_rp"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Product         Product   `gorm:"foreignKey:ProductID" json:"-"`
}
