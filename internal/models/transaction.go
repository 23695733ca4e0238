package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"   // TUNAI
	PaymentMethodCredit PaymentMethod = "CREDIT" // KASBON
)

// Transaction is a completed sale. Items snapshot name and price at the time
// of sale and are never mutated afterwards.
type Transaction struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID       uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_transactions_store_invoice" json:"store_id"`
	UserID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"` // cashier
	CustomerID    *uuid.UUID    `gorm:"type:uuid" json:"customer_id,omitempty"`
	InvoiceSeq    int64         `gorm:"not null;uniqueIndex:idx_transactions_store_invoice" json:"invoice_seq"`
	InvoiceNumber string        `gorm:"not null;size:30" json:"invoice_number"`
	PaymentMethod PaymentMethod `gorm:"not null;size:10" json:"payment_method"`

	Subtotal   int64 `gorm:"not null" json:"subtotal"`
	Tax        int64 `gorm:"not null;default:0" json:"tax"`
	Discount   int64 `gorm:"not null;default:0" json:"discount"`
	Total      int64 `gorm:"not null" json:"total"`
	AmountPaid int64 `gorm:"not null;default:0" json:"amount_paid"`
	Change     int64 `gorm:"not null;default:0" json:"change"`

	CreatedAt time.Time         `json:"created_at"`
	Items     []TransactionItem `gorm:"foreignKey:TransactionID" json:"items"`
	Customer  *Customer         `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Cashier   User              `gorm:"foreignKey:UserID" json:"cashier"`
}

type TransactionItem struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index" json:"transaction_id"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	VariantID     uuid.UUID `gorm:"type:uuid;not null" json:"variant_id"`
	Name          string    `gorm:"not null;size:200" json:"name"`
	Quantity      int64     `gorm:"not null" json:"quantity"`
	Price         int64     `gorm:"not null" json:"price"`    // server-side price at sale time
	Subtotal      int64     `gorm:"not null" json:"subtotal"` // price * quantity
	CreatedAt     time.Time `json:"created_at"`
}

func (i *TransactionItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
