package dto

import (
	"github.com/google/uuid"
	"github.com/kasirpos/backend/internal/models"
)

type TransactionItemInput struct {
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int64     `json:"quantity"`
}

type CreateTransactionRequest struct {
	PaymentMethod models.PaymentMethod   `json:"payment_method"`
	Items         []TransactionItemInput `json:"items"`
	AmountPaid    int64                  `json:"amount_paid"`
	CustomerName  string                 `json:"customer_name,omitempty"`
	CustomerPhone string                 `json:"customer_phone,omitempty"`
}

type CreateStoreRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type AddMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}
