package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kasirpos/backend/internal/dto"
	"github.com/kasirpos/backend/internal/gateway"
	"github.com/kasirpos/backend/internal/models"
	"github.com/kasirpos/backend/internal/tenant"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailNotVerified = errors.New("email address is not verified")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrInvalidCallback  = errors.New("callback payload is missing required fields")
	ErrBadSignature     = errors.New("callback signature mismatch")
)

const (
	paymentExpiryHours  = 24
	gatewaySuccessCode  = "00"
	msgAlreadyProcessed = "already processed"
)

type PaymentService struct {
	db              *gorm.DB
	gateway         gateway.Client
	subscriptions   *SubscriptionService
	strictSignature bool
}

func NewPaymentService(db *gorm.DB, gw gateway.Client, subs *SubscriptionService, strictSignature bool) *PaymentService {
	return &PaymentService{
		db:              db,
		gateway:         gw,
		subscriptions:   subs,
		strictSignature: strictSignature,
	}
}

// CreateSubscriptionPayment starts a payment attempt for a package. A live
// PENDING payment for the user is returned as-is instead of creating a
// duplicate. The PENDING row is persisted before the gateway is called, so a
// crash mid-call never loses the attempt.
func (s *PaymentService) CreateSubscriptionPayment(ctx context.Context, userID, packageID uuid.UUID) (*dto.CreatePaymentResponse, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	var pkg models.SubscriptionPackage
	if err := s.db.First(&pkg, "id = ? AND is_active = ?", packageID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to load package: %w", err)
	}

	// Reuse an existing live pending payment: a user never holds two at once.
	var existing models.Payment
	err := s.db.Scopes(tenant.ForUser(userID)).
		Where("status = ? AND expired_at >= ?", models.PaymentPending, time.Now()).
		Order("created_at DESC").
		First(&existing).Error
	if err == nil {
		return &dto.CreatePaymentResponse{
			MerchantOrderID: existing.MerchantOrderID,
			Amount:          existing.Amount,
			PaymentURL:      existing.PaymentURL,
			ExpiredAt:       existing.ExpiredAt,
			IsExisting:      true,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check pending payments: %w", err)
	}

	payment := models.Payment{
		ID:              uuid.New(),
		MerchantOrderID: newMerchantOrderID(userID),
		UserID:          userID,
		PackageID:       pkg.ID,
		Amount:          pkg.Price,
		Status:          models.PaymentPending,
		ExpiredAt:       time.Now().Add(paymentExpiryHours * time.Hour),
	}
	if err := s.db.Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}

	gwResp, err := s.gateway.CreatePayment(ctx, &gateway.CreatePaymentRequest{
		MerchantOrderID: payment.MerchantOrderID,
		PaymentAmount:   payment.Amount,
		ProductDetail:   "Subscription " + pkg.DisplayName,
		Email:           user.Email,
		PhoneNumber:     user.Phone,
		CustomerName:    user.Name,
		ExpiryPeriod:    paymentExpiryHours * 60,
	})
	if err != nil {
		// Never leave a dangling PENDING row behind a failed gateway call.
		if dbErr := s.db.Model(&payment).Updates(map[string]interface{}{
			"status":         models.PaymentFailed,
			"status_message": err.Error(),
		}).Error; dbErr != nil {
			slog.Error("failed to mark payment FAILED after gateway error",
				"merchant_order_id", payment.MerchantOrderID, "error", dbErr.Error())
		}
		return nil, fmt.Errorf("gateway payment creation failed: %w", err)
	}

	if err := s.db.Model(&payment).Updates(map[string]interface{}{
		"payment_url":    gwResp.PaymentURL,
		"reference":      gwResp.Reference,
		"payment_method": gwResp.PaymentMethod,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to store gateway reference: %w", err)
	}

	return &dto.CreatePaymentResponse{
		MerchantOrderID: payment.MerchantOrderID,
		Amount:          payment.Amount,
		PaymentURL:      gwResp.PaymentURL,
		ExpiredAt:       payment.ExpiredAt,
	}, nil
}

// HandleCallback processes a gateway result notification. Replays for a
// non-PENDING payment return the stored outcome without touching state. A
// SUCCESS payment whose subscription activation fails stays SUCCESS with a
// diagnostic message; money received is never rolled back here.
func (s *PaymentService) HandleCallback(ctx context.Context, cb *dto.GatewayCallback) (*dto.CallbackOutcome, error) {
	if cb.MerchantCode == "" || cb.Amount == "" || cb.MerchantOrderID == "" || cb.ResultCode == "" {
		return nil, ErrInvalidCallback
	}

	if !s.gateway.VerifyCallback(cb.MerchantCode, cb.Amount, cb.MerchantOrderID, cb.Signature) {
		if s.strictSignature {
			return nil, ErrBadSignature
		}
		slog.Warn("callback signature mismatch tolerated (strict verification disabled)",
			"merchant_order_id", cb.MerchantOrderID)
	}

	var payment models.Payment
	if err := s.db.WithContext(ctx).First(&payment, "merchant_order_id = ?", cb.MerchantOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	if payment.Status != models.PaymentPending {
		return &dto.CallbackOutcome{
			MerchantOrderID: payment.MerchantOrderID,
			Status:          payment.Status,
			UserID:          payment.UserID,
			Message:         msgAlreadyProcessed,
		}, nil
	}

	newStatus := models.PaymentFailed
	if cb.ResultCode == gatewaySuccessCode {
		newStatus = models.PaymentSuccess
	}

	updates := map[string]interface{}{
		"status":         newStatus,
		"status_message": "result code " + cb.ResultCode,
	}
	if raw, err := json.Marshal(cb); err == nil {
		updates["raw_callback"] = datatypes.JSON(raw)
	}
	if cb.Reference != "" {
		updates["reference"] = cb.Reference
	}
	now := time.Now()
	if newStatus == models.PaymentSuccess {
		updates["paid_at"] = now
	}

	// Claim the PENDING row atomically; a concurrent replay that loses the
	// race sees zero rows and reports already-processed.
	claim := s.db.Model(&models.Payment{}).
		Where("merchant_order_id = ? AND status = ?", payment.MerchantOrderID, models.PaymentPending).
		Updates(updates)
	if claim.Error != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", claim.Error)
	}
	if claim.RowsAffected == 0 {
		if err := s.db.First(&payment, "merchant_order_id = ?", cb.MerchantOrderID).Error; err != nil {
			return nil, fmt.Errorf("failed to reload payment: %w", err)
		}
		return &dto.CallbackOutcome{
			MerchantOrderID: payment.MerchantOrderID,
			Status:          payment.Status,
			UserID:          payment.UserID,
			Message:         msgAlreadyProcessed,
		}, nil
	}

	outcome := &dto.CallbackOutcome{
		MerchantOrderID: payment.MerchantOrderID,
		Status:          newStatus,
		UserID:          payment.UserID,
	}

	if newStatus != models.PaymentSuccess {
		outcome.Message = "payment failed with result code " + cb.ResultCode
		return outcome, nil
	}

	activation, err := s.subscriptions.Activate(payment.UserID, payment.PackageID)
	if err != nil {
		// Deliberate partial-failure policy: the payment stays SUCCESS and
		// the activation failure is reconciled out-of-band.
		msg := "payment succeeded but subscription activation failed: " + err.Error()
		slog.Error("subscription activation failed after successful payment",
			"merchant_order_id", payment.MerchantOrderID,
			"user_id", payment.UserID.String(),
			"action", "activate_subscription",
			"error", err.Error())
		if dbErr := s.db.Model(&models.Payment{}).
			Where("merchant_order_id = ?", payment.MerchantOrderID).
			Update("status_message", msg).Error; dbErr != nil {
			slog.Error("failed to record activation diagnostic",
				"merchant_order_id", payment.MerchantOrderID, "error", dbErr.Error())
		}
		outcome.Message = msg
		return outcome, nil
	}

	if err := s.db.Model(&models.Payment{}).
		Where("merchant_order_id = ?", payment.MerchantOrderID).
		Update("subscription_id", activation.Subscription.ID).Error; err != nil {
		slog.Error("failed to link subscription to payment",
			"merchant_order_id", payment.MerchantOrderID, "error", err.Error())
	}

	outcome.Message = "payment successful, subscription activated"
	return outcome, nil
}

// GetPaymentStatus projects a single payment with read-time expiry fields.
func (s *PaymentService) GetPaymentStatus(userID uuid.UUID, merchantOrderID string) (*dto.PaymentStatusResponse, error) {
	var payment models.Payment
	err := s.db.Scopes(tenant.ForUser(userID)).
		First(&payment, "merchant_order_id = ?", merchantOrderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	return projectPayment(&payment), nil
}

// GetUserPaymentHistory lists the user's payments, newest first.
func (s *PaymentService) GetUserPaymentHistory(userID uuid.UUID) ([]*dto.PaymentStatusResponse, error) {
	var payments []models.Payment
	if err := s.db.Scopes(tenant.ForUser(userID)).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to load payment history: %w", err)
	}

	out := make([]*dto.PaymentStatusResponse, 0, len(payments))
	for i := range payments {
		out = append(out, projectPayment(&payments[i]))
	}
	return out, nil
}

// projectPayment computes expiry at query time. Payment expiry is derived,
// never persisted; subscriptions are the opposite (see the expiry sweep).
func projectPayment(p *models.Payment) *dto.PaymentStatusResponse {
	remaining := int64(time.Until(p.ExpiredAt).Seconds())
	isExpired := p.Status == models.PaymentPending && remaining <= 0
	if remaining < 0 {
		remaining = 0
	}
	status := p.Status
	if isExpired {
		status = models.PaymentExpired
	}
	return &dto.PaymentStatusResponse{
		MerchantOrderID:  p.MerchantOrderID,
		Status:           status,
		Amount:           p.Amount,
		PaymentURL:       p.PaymentURL,
		ExpiredAt:        p.ExpiredAt,
		IsExpired:        isExpired,
		RemainingSeconds: remaining,
		PaidAt:           p.PaidAt,
		SubscriptionID:   p.SubscriptionID,
	}
}

// newMerchantOrderID is unique across history: millisecond timestamp plus a
// user-derived suffix.
func newMerchantOrderID(userID uuid.UUID) string {
	suffix := strings.ToUpper(strings.ReplaceAll(userID.String(), "-", "")[:8])
	return fmt.Sprintf("KP%d%s", time.Now().UnixMilli(), suffix)
}
