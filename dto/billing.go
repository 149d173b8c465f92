package dto

import "time"

// ==================== BILLING REQUEST DTOs ====================

type CheckoutRequest struct {
	PlanID string `json:"plan_id" validate:"required,plan_id" example:"yearly"`
}

func (c CheckoutRequest) Validate() error {
	return GetValidator().Struct(c)
}

type PaymentIntentRequest struct {
	PlanID string `json:"plan_id" validate:"required,plan_id" example:"lifetime"`
}

func (p PaymentIntentRequest) Validate() error {
	return GetValidator().Struct(p)
}

// ==================== BILLING RESPONSE DTOs ====================

type CheckoutResponse struct {
	URL string `json:"url"`
}

type PaymentIntentResponse struct {
	ClientSecret   string `json:"client_secret"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Type           string `json:"type"` // payment, subscription
	PlanID         string `json:"plan_id"`
	Amount         int64  `json:"amount"`
}

type PortalResponse struct {
	URL string `json:"url"`
}

type PlanResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Popular     bool     `json:"popular,omitempty"`
}

// ==================== ENTITLEMENT DTOs ====================

type EntitlementResponse struct {
	UserID           string     `json:"user_id"`
	Status           string     `json:"status"`
	Type             string     `json:"type"`
	PlanID           string     `json:"plan_id"`
	IsPremium        bool       `json:"is_premium"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// WebhookAck is the acknowledgment body the payment gateway expects.
type WebhookAck struct {
	Received bool `json:"received"`
}
