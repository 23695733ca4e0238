package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/kasirpos/backend/internal/models"
)

type CreatePaymentRequest struct {
	PackageID uuid.UUID `json:"package_id"`
}

type CreatePaymentResponse struct {
	MerchantOrderID string    `json:"merchant_order_id"`
	Amount          int64     `json:"amount"`
	PaymentURL      string    `json:"payment_url"`
	ExpiredAt       time.Time `json:"expired_at"`
	// IsExisting is true when a live PENDING payment was reused instead of
	// creating a duplicate.
	IsExisting bool `json:"is_existing"`
}

// GatewayCallback is the flat payload the provider POSTs to the callback
// endpoint (form-encoded).
type GatewayCallback struct {
	MerchantCode    string `json:"merchantCode" form:"merchantCode"`
	Amount          string `json:"amount" form:"amount"`
	MerchantOrderID string `json:"merchantOrderId" form:"merchantOrderId"`
	ProductDetail   string `json:"productDetail" form:"productDetail"`
	ResultCode      string `json:"resultCode" form:"resultCode"`
	Reference       string `json:"reference" form:"reference"`
	Signature       string `json:"signature" form:"signature"`
	PaymentCode     string `json:"paymentCode" form:"paymentCode"`
}

// CallbackOutcome is what callback processing reports internally. The HTTP
// boundary always acknowledges the gateway with "OK" regardless.
type CallbackOutcome struct {
	MerchantOrderID string               `json:"merchant_order_id"`
	Status          models.PaymentStatus `json:"status"`
	UserID          uuid.UUID            `json:"user_id"`
	Message         string               `json:"message"`
}

// PaymentStatusResponse derives expiry fields from expired_at at query time.
type PaymentStatusResponse struct {
	MerchantOrderID  string               `json:"merchant_order_id"`
	Status           models.PaymentStatus `json:"status"`
	Amount           int64                `json:"amount"`
	PaymentURL       string               `json:"payment_url,omitempty"`
	ExpiredAt        time.Time            `json:"expired_at"`
	IsExpired        bool                 `json:"is_expired"`
	RemainingSeconds int64                `json:"remaining_seconds"`
	PaidAt           *time.Time           `json:"paid_at,omitempty"`
	SubscriptionID   *uuid.UUID           `json:"subscription_id,omitempty"`
}
