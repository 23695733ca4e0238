package services

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/kasirpos/backend/internal/dto"
	"github.com/kasirpos/backend/internal/models"
	"github.com/kasirpos/backend/internal/tenant"
	"gorm.io/gorm"
)

var (
	ErrAlreadySubscribed = errors.New("user already has an active subscription")
	ErrPackageNotFound   = errors.New("subscription package not found")
)

const (
	firstReminderDays  = 7
	secondReminderDays = 3
)

// Notifier delivers expiry reminders. Delivery mechanics live outside this
// service; the default implementation only logs.
type Notifier interface {
	SendExpiryReminder(user *models.User, sub *models.Subscription, daysLeft int) error
}

type LogNotifier struct{}

func (LogNotifier) SendExpiryReminder(user *models.User, sub *models.Subscription, daysLeft int) error {
	slog.Info("subscription expiry reminder",
		"user_id", user.ID.String(), "email", user.Email,
		"subscription_id", sub.ID.String(), "days_left", daysLeft)
	return nil
}

type SubscriptionService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewSubscriptionService(db *gorm.DB, notifier Notifier) *SubscriptionService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &SubscriptionService{db: db, notifier: notifier}
}

// ActiveSubscription returns the user's live ACTIVE/TRIAL subscription, or
// gorm.ErrRecordNotFound.
func (s *SubscriptionService) ActiveSubscription(userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Preload("Package").
		Scopes(tenant.ForUser(userID)).
		Where("status IN ? AND end_date >= ?",
			[]models.SubscriptionStatus{models.SubscriptionActive, models.SubscriptionTrial}, time.Now()).
		Order("end_date DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateNewUserSubscription activates a subscription after payment. First-time
// subscribers get the pay-1-get-2 promo: double the package duration.
func (s *SubscriptionService) CreateNewUserSubscription(userID, packageID uuid.UUID) (*dto.ActivationResult, error) {
	var pkg models.SubscriptionPackage
	if err := s.db.First(&pkg, "id = ? AND is_active = ?", packageID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to load package: %w", err)
	}

	var result *dto.ActivationResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Re-check inside the transaction so two concurrent activations
		// cannot both pass the uniqueness guard.
		var live int64
		if err := tx.Model(&models.Subscription{}).
			Scopes(tenant.ForUser(userID)).
			Where("status IN ? AND end_date >= ?",
				[]models.SubscriptionStatus{models.SubscriptionActive, models.SubscriptionTrial}, time.Now()).
			Count(&live).Error; err != nil {
			return err
		}
		if live > 0 {
			return ErrAlreadySubscribed
		}

		var prior int64
		if err := tx.Model(&models.Subscription{}).Scopes(tenant.ForUser(userID)).Count(&prior).Error; err != nil {
			return err
		}
		isNewUser := prior == 0

		paidMonths, bonusMonths := 1, 0
		if isNewUser {
			bonusMonths = 1
		}
		totalMonths := paidMonths + bonusMonths

		now := time.Now()
		sub := models.Subscription{
			ID:             uuid.New(),
			UserID:         userID,
			PackageID:      pkg.ID,
			Status:         models.SubscriptionActive,
			StartDate:      now,
			EndDate:        now.AddDate(0, 0, pkg.DurationDays*totalMonths),
			IsNewUserPromo: isNewUser,
			PaidMonths:     paidMonths,
			BonusMonths:    bonusMonths,
			TotalMonths:    totalMonths,
		}
		if err := tx.Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}

		sub.Package = pkg
		result = &dto.ActivationResult{
			Subscription: &sub,
			Promo:        promoFor(&sub),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RenewSubscription cancels any live subscription and starts a fresh one of
// the package's base duration. No promo logic.
func (s *SubscriptionService) RenewSubscription(userID, packageID uuid.UUID) (*dto.ActivationResult, error) {
	var pkg models.SubscriptionPackage
	if err := s.db.First(&pkg, "id = ? AND is_active = ?", packageID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to load package: %w", err)
	}

	var result *dto.ActivationResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&models.Subscription{}).
			Scopes(tenant.ForUser(userID)).
			Where("status IN ?", []models.SubscriptionStatus{models.SubscriptionActive, models.SubscriptionTrial}).
			Updates(map[string]interface{}{
				"status":       models.SubscriptionCancelled,
				"cancelled_at": now,
			}).Error; err != nil {
			return fmt.Errorf("failed to cancel previous subscription: %w", err)
		}

		sub := models.Subscription{
			ID:          uuid.New(),
			UserID:      userID,
			PackageID:   pkg.ID,
			Status:      models.SubscriptionActive,
			StartDate:   now,
			EndDate:     now.AddDate(0, 0, pkg.DurationDays),
			PaidMonths:  1,
			TotalMonths: 1,
		}
		if err := tx.Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to create renewal subscription: %w", err)
		}

		sub.Package = pkg
		result = &dto.ActivationResult{
			Subscription: &sub,
			Promo:        promoFor(&sub),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Activate is the single entry point the payment orchestrator uses after a
// successful payment: first-time and returning users go through the promo
// path, an already-subscribed user gets a cancel-and-replace renewal.
func (s *SubscriptionService) Activate(userID, packageID uuid.UUID) (*dto.ActivationResult, error) {
	result, err := s.CreateNewUserSubscription(userID, packageID)
	if errors.Is(err, ErrAlreadySubscribed) {
		return s.RenewSubscription(userID, packageID)
	}
	return result, err
}

// CanCreateStore checks the active subscription's maxStores limit against the
// stores the user already owns. Business-rule denial is a decision, not an
// error.
func (s *SubscriptionService) CanCreateStore(userID uuid.UUID) (*dto.EntitlementDecision, error) {
	sub, err := s.ActiveSubscription(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.EntitlementDecision{Allowed: false, Reason: "no active subscription"}, nil
		}
		return nil, err
	}

	var owned int64
	if err := s.db.Model(&models.Store{}).Where("owner_id = ?", userID).Count(&owned).Error; err != nil {
		return nil, err
	}

	decision := &dto.EntitlementDecision{
		Allowed:      owned < int64(sub.Package.MaxStores),
		CurrentCount: owned,
		MaxAllowed:   sub.Package.MaxStores,
	}
	if !decision.Allowed {
		decision.Reason = fmt.Sprintf("store limit reached (%d of %d)", owned, sub.Package.MaxStores)
		decision.SuggestedUpgrade = s.suggestUpgrade(sub.Package.MaxStores)
	}
	return decision, nil
}

// CanAddMember checks the store owner's maxMembers limit against the store's
// active members.
func (s *SubscriptionService) CanAddMember(storeID, ownerID uuid.UUID) (*dto.EntitlementDecision, error) {
	sub, err := s.ActiveSubscription(ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.EntitlementDecision{Allowed: false, Reason: "no active subscription"}, nil
		}
		return nil, err
	}

	var members int64
	if err := s.db.Model(&models.StoreMember{}).
		Scopes(tenant.ForStore(storeID)).
		Where("is_active = ?", true).
		Count(&members).Error; err != nil {
		return nil, err
	}

	decision := &dto.EntitlementDecision{
		Allowed:      members < int64(sub.Package.MaxMembers),
		CurrentCount: members,
		MaxAllowed:   sub.Package.MaxMembers,
	}
	if !decision.Allowed {
		decision.Reason = fmt.Sprintf("member limit reached (%d of %d)", members, sub.Package.MaxMembers)
		decision.SuggestedUpgrade = s.suggestUpgrade(sub.Package.MaxStores)
	}
	return decision, nil
}

func (s *SubscriptionService) suggestUpgrade(currentMaxStores int) string {
	var next models.SubscriptionPackage
	err := s.db.Where("is_active = ? AND max_stores > ?", true, currentMaxStores).
		Order("price ASC").
		First(&next).Error
	if err != nil {
		return ""
	}
	return next.Name
}

// CheckSubscriptionStatus reports access and remaining days for display.
func (s *SubscriptionService) CheckSubscriptionStatus(userID uuid.UUID) (*dto.SubscriptionStatusResponse, error) {
	sub, err := s.ActiveSubscription(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.SubscriptionStatusResponse{HasAccess: false}, nil
		}
		return nil, err
	}

	daysLeft := int(math.Ceil(time.Until(sub.EndDate).Hours() / 24))
	return &dto.SubscriptionStatusResponse{
		HasAccess:  true,
		Status:     string(sub.Status),
		DaysLeft:   daysLeft,
		IsExpiring: daysLeft <= firstReminderDays,
		Package:    sub.Package.Name,
		Sub:        sub,
	}, nil
}

// ExpireOverdue transitions every overdue ACTIVE/TRIAL subscription to
// EXPIRED. Idempotent: a second run matches nothing.
func (s *SubscriptionService) ExpireOverdue() (int64, error) {
	now := time.Now()
	result := s.db.Model(&models.Subscription{}).
		Where("status IN ? AND end_date < ?",
			[]models.SubscriptionStatus{models.SubscriptionActive, models.SubscriptionTrial}, now).
		Updates(map[string]interface{}{
			"status":       models.SubscriptionExpired,
			"cancelled_at": now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("expiry sweep failed: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// SendReminders notifies users whose subscription expires within 7 days
// (first reminder) or 3 days (second). The sent flags make each reminder
// send-once across repeated sweeps.
func (s *SubscriptionService) SendReminders() (int, error) {
	sent := 0
	n, err := s.sendReminderBatch(firstReminderDays, "first_reminder_sent")
	if err != nil {
		return sent, err
	}
	sent += n
	n, err = s.sendReminderBatch(secondReminderDays, "second_reminder_sent")
	if err != nil {
		return sent, err
	}
	return sent + n, nil
}

func (s *SubscriptionService) sendReminderBatch(days int, flagColumn string) (int, error) {
	now := time.Now()
	var subs []models.Subscription
	err := s.db.Preload("User").Preload("Package").
		Where("status IN ? AND end_date > ? AND end_date <= ? AND "+flagColumn+" = ?",
			[]models.SubscriptionStatus{models.SubscriptionActive, models.SubscriptionTrial},
			now, now.AddDate(0, 0, days), false).
		Find(&subs).Error
	if err != nil {
		return 0, fmt.Errorf("reminder sweep query failed: %w", err)
	}

	sent := 0
	for i := range subs {
		sub := &subs[i]
		daysLeft := int(math.Ceil(time.Until(sub.EndDate).Hours() / 24))
		if err := s.notifier.SendExpiryReminder(&sub.User, sub, daysLeft); err != nil {
			slog.Error("reminder delivery failed",
				"subscription_id", sub.ID.String(), "user_id", sub.UserID.String(), "error", err.Error())
			continue
		}
		if err := s.db.Model(sub).UpdateColumn(flagColumn, true).Error; err != nil {
			return sent, fmt.Errorf("failed to mark reminder sent: %w", err)
		}
		sent++
	}
	return sent, nil
}

func promoFor(sub *models.Subscription) dto.PromoDescriptor {
	desc := fmt.Sprintf("%d month access", sub.TotalMonths)
	if sub.IsNewUserPromo {
		desc = fmt.Sprintf("new user promo: pay %d month, get %d months", sub.PaidMonths, sub.TotalMonths)
	}
	return dto.PromoDescriptor{
		IsNewUserPromo: sub.IsNewUserPromo,
		PaidMonths:     sub.PaidMonths,
		BonusMonths:    sub.BonusMonths,
		TotalMonths:    sub.TotalMonths,
		Description:    desc,
	}
}
