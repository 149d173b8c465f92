package model

import (
	"time"

	"github.com/algoviz-app/algoviz_api/shared"
)

// Entitlement is the paid-access record for one user. There is at most one row
// per canonical user id and it is only ever merge-upserted: lifecycle events
// each touch their own field set, cancellation is a status transition, the row
// is never deleted.
type Entitlement struct {
	UserID string `json:"user_id" gorm:"primaryKey"`

	Status string `json:"status"` // active, inactive, cancelled, past_due
	Type   string `json:"type"`   // subscription, lifetime
	PlanID string `json:"plan_id"`

	StripeCustomerID      string `json:"stripe_customer_id"`
	StripeSubscriptionID  string `json:"stripe_subscription_id"`
	StripePaymentIntentID string `json:"stripe_payment_intent_id"`
	StripeSessionID       string `json:"stripe_session_id"`

	// Amount/Currency are captured on one-time payments for receipts.
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`

	// CurrentPeriodEnd is refreshed by invoice and subscription events.
	// ExpiresAt is nil for lifetime plans, meaning the entitlement never
	// expires.
	CurrentPeriodEnd *time.Time `json:"current_period_end"`
	ExpiresAt        *time.Time `json:"expires_at"`

	CancelledAt *time.Time `json:"cancelled_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsPremiumAt reports whether the entitlement grants premium access at the
// given instant. Lifetime entitlements never expire regardless of ExpiresAt.
//
// TODO: CurrentPeriodEnd is written by the invoice/subscription webhook
// branches but never consulted here, and no branch writes ExpiresAt for
// subscriptions, so the expiry clause below is inert for them. Pending a
// product decision on which field governs renewal expiry; do not "fix" one
// side without the other.
func (e *Entitlement) IsPremiumAt(now time.Time) bool {
	if e == nil || e.Status != shared.EntitlementStatusActive {
		return false
	}

	switch e.Type {
	case shared.EntitlementTypeLifetime:
		return true
	case shared.EntitlementTypeSubscription:
		return e.ExpiresAt == nil || e.ExpiresAt.After(now)
	default:
		return false
	}
}
