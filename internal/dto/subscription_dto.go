package dto

import "github.com/kasirpos/backend/internal/models"

// PromoDescriptor tells the client what promotion (if any) applied when a
// subscription was activated.
type PromoDescriptor struct {
	IsNewUserPromo bool   `json:"is_new_user_promo"`
	PaidMonths     int    `json:"paid_months"`
	BonusMonths    int    `json:"bonus_months"`
	TotalMonths    int    `json:"total_months"`
	Description    string `json:"description"`
}

type ActivationResult struct {
	Subscription *models.Subscription `json:"subscription"`
	Promo        PromoDescriptor      `json:"promo"`
}

// EntitlementDecision is returned by limit checks. "Not allowed" is a normal
// result, never an error.
type EntitlementDecision struct {
	Allowed          bool   `json:"allowed"`
	Reason           string `json:"reason,omitempty"`
	CurrentCount     int64  `json:"current_count"`
	MaxAllowed       int    `json:"max_allowed"`
	SuggestedUpgrade string `json:"suggested_upgrade,omitempty"`
}

type SubscriptionStatusResponse struct {
	HasAccess  bool                 `json:"has_access"`
	Status     string               `json:"status,omitempty"`
	DaysLeft   int                  `json:"days_left"`
	IsExpiring bool                 `json:"is_expiring"`
	Package    string               `json:"package,omitempty"`
	Sub        *models.Subscription `json:"subscription,omitempty"`
}
