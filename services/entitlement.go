package services

import (
	"context"
	"fmt"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/algoviz-app/algoviz_api/model"
	"github.com/algoviz-app/algoviz_api/shared"
)

// EntitlementService owns the paid-access record. Webhook deliveries are
// folded in through the Apply* methods; each one is a merge-upsert touching
// its own field set, so at-least-once delivery from the gateway converges to
// the same record. Reads go through a short-lived redis cache when available,
// and every write is pushed onto the entitlement feed for live readers.
type EntitlementService struct {
	appContext.DefaultService

	sqlSvc   *SqlService
	redisSvc *RedisService
	userSvc  *UserService
	emailSvc *EmailService

	feed EntitlementFeed
}

const ENTITLEMENT_SVC = "entitlement_svc"

const entitlementCacheTTL = time.Minute

// ==================== EVENT PAYLOADS ====================

type CheckoutCompleted struct {
	UserID         string
	PlanID         string
	CustomerID     string
	SessionID      string
	SubscriptionID string
}

type LifetimePaymentSucceeded struct {
	UserID          string
	PlanID          string
	CustomerID      string
	PaymentIntentID string
	Amount          int64
	Currency        string

	// Looked up from the gateway, best effort. Used to backfill the user
	// profile and send the receipt.
	CustomerEmail string
	CustomerName  string
}

type InvoicePaid struct {
	UserID         string
	PlanID         string
	CustomerID     string
	SubscriptionID string
	PeriodEnd      time.Time
}

type SubscriptionUpdated struct {
	UserID         string
	ProviderActive bool
	PeriodEnd      time.Time
}

func (svc EntitlementService) Id() string {
	return ENTITLEMENT_SVC
}

func (svc *EntitlementService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *EntitlementService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	svc.userSvc = svc.Service(USER_SVC).(*UserService)
	svc.emailSvc = svc.Service(EMAIL_SVC).(*EmailService)

	if svc.redisSvc.Enabled() {
		svc.feed = newRedisFeed(svc.redisSvc)
	} else {
		svc.feed = newMemoryFeed()
	}

	return nil
}

// ==================== READS ====================

func entitlementCacheKey(userID string) string {
	return "entitlement:cache:" + userID
}

func (svc *EntitlementService) GetEntitlement(ctx context.Context, userID string) (*model.Entitlement, error) {
	if svc.redisSvc != nil && svc.redisSvc.Enabled() {
		var cached model.Entitlement
		if err := svc.redisSvc.GetJSON(ctx, entitlementCacheKey(userID), &cached); err == nil && cached.UserID != "" {
			return &cached, nil
		}
	}

	ent, err := svc.sqlSvc.GetEntitlement(userID)
	if err != nil {
		return nil, err
	}

	svc.cache(ctx, ent)
	return ent, nil
}

// IsPremium derives the access flag for gating. A missing record means free
// tier, not an error.
func (svc *EntitlementService) IsPremium(ctx context.Context, userID string) bool {
	ent, err := svc.GetEntitlement(ctx, userID)
	if err != nil {
		return false
	}
	return ent.IsPremiumAt(time.Now().UTC())
}

// Watch blocks until the entitlement changes or the timeout passes, then
// returns the current record. The boolean reports whether a change arrived.
func (svc *EntitlementService) Watch(ctx context.Context, userID string, timeout time.Duration) (*model.Entitlement, bool, error) {
	updates := make(chan *model.Entitlement, 1)
	unsubscribe, err := svc.feed.Subscribe(ctx, userID, func(ent *model.Entitlement) {
		select {
		case updates <- ent:
		default:
		}
	}, func(err error) {
		log.WithError(err).WithField("user_id", userID).Warn("Entitlement feed error")
	})
	if err != nil {
		return nil, false, shared.NewInternalError(err, "Failed to subscribe to entitlement feed")
	}
	defer unsubscribe()

	watcherStarted()
	defer watcherFinished()

	select {
	case ent := <-updates:
		return ent, true, nil
	case <-time.After(timeout):
	case <-ctx.Done():
	}

	ent, err := svc.GetEntitlement(ctx, userID)
	if err != nil {
		if appErr, ok := shared.GetAppError(err); ok && appErr.StatusCode == 404 {
			return nil, false, nil
		}
		return nil, false, err
	}
	return ent, false, nil
}

// ==================== EVENT FOLDS ====================

// ApplyCheckoutCompleted handles a finished hosted-checkout session.
func (svc *EntitlementService) ApplyCheckoutCompleted(ctx context.Context, ev CheckoutCompleted) (*model.Entitlement, error) {
	fields := map[string]interface{}{
		"status":             shared.EntitlementStatusActive,
		"plan_id":            ev.PlanID,
		"stripe_customer_id": ev.CustomerID,
		"stripe_session_id":  ev.SessionID,
	}

	if ev.PlanID == shared.PlanLifetime {
		fields["type"] = shared.EntitlementTypeLifetime
		fields["expires_at"] = nil
	} else {
		fields["type"] = shared.EntitlementTypeSubscription
		fields["stripe_subscription_id"] = ev.SubscriptionID
	}

	return svc.merge(ctx, ev.UserID, "checkout.session.completed", fields)
}

// ApplyLifetimePayment handles the one-time payment path. The user profile is
// backfilled first so a purchase made before the account's first login still
// lands somewhere; that step and the receipt email are best effort.
func (svc *EntitlementService) ApplyLifetimePayment(ctx context.Context, ev LifetimePaymentSucceeded) (*model.Entitlement, error) {
	if ev.CustomerEmail != "" {
		if err := svc.userSvc.EnsureUser(ev.UserID, ev.CustomerEmail, ev.CustomerName); err != nil {
			log.WithError(err).WithField("user_id", ev.UserID).Warn("Failed to backfill user profile")
		}
	}

	ent, err := svc.merge(ctx, ev.UserID, "payment_intent.succeeded", map[string]interface{}{
		"status":                   shared.EntitlementStatusActive,
		"plan_id":                  ev.PlanID,
		"type":                     shared.EntitlementTypeLifetime,
		"stripe_customer_id":       ev.CustomerID,
		"stripe_payment_intent_id": ev.PaymentIntentID,
		"amount":                   ev.Amount,
		"currency":                 ev.Currency,
		"expires_at":               nil,
	})
	if err != nil {
		return nil, err
	}

	if ev.CustomerEmail != "" && svc.emailSvc != nil {
		if err := svc.emailSvc.SendReceiptEmail(ev.CustomerEmail, ev.CustomerName, ev.PlanID, ev.Amount, ev.Currency); err != nil {
			log.WithError(err).WithField("user_id", ev.UserID).Warn("Failed to send receipt email")
		}
	}

	return ent, nil
}

// ApplyInvoicePaid handles a recurring renewal.
func (svc *EntitlementService) ApplyInvoicePaid(ctx context.Context, ev InvoicePaid) (*model.Entitlement, error) {
	planID := ev.PlanID
	if planID == "" {
		planID = shared.PlanYearly
	}

	return svc.merge(ctx, ev.UserID, "invoice.paid", map[string]interface{}{
		"status":                 shared.EntitlementStatusActive,
		"plan_id":                planID,
		"type":                   shared.EntitlementTypeSubscription,
		"stripe_customer_id":     ev.CustomerID,
		"stripe_subscription_id": ev.SubscriptionID,
		"current_period_end":     ev.PeriodEnd.UTC(),
	})
}

// ApplySubscriptionUpdated mirrors the provider's view of the subscription.
func (svc *EntitlementService) ApplySubscriptionUpdated(ctx context.Context, ev SubscriptionUpdated) (*model.Entitlement, error) {
	status := shared.EntitlementStatusInactive
	if ev.ProviderActive {
		status = shared.EntitlementStatusActive
	}

	return svc.merge(ctx, ev.UserID, "customer.subscription.updated", map[string]interface{}{
		"status":             status,
		"current_period_end": ev.PeriodEnd.UTC(),
	})
}

// ApplySubscriptionDeleted transitions to cancelled. Everything else on the
// record is left alone, and CancelledAt is only stamped on the first
// delivery so redelivery converges.
func (svc *EntitlementService) ApplySubscriptionDeleted(ctx context.Context, userID string) (*model.Entitlement, error) {
	fields := map[string]interface{}{
		"status": shared.EntitlementStatusCancelled,
	}

	existing, err := svc.sqlSvc.GetEntitlement(userID)
	if err != nil || existing.CancelledAt == nil {
		fields["cancelled_at"] = time.Now().UTC()
	}

	return svc.merge(ctx, userID, "customer.subscription.deleted", fields)
}

// ApplyPaymentFailed marks the entitlement past due.
func (svc *EntitlementService) ApplyPaymentFailed(ctx context.Context, userID string) (*model.Entitlement, error) {
	return svc.merge(ctx, userID, "invoice.payment_failed", map[string]interface{}{
		"status": shared.EntitlementStatusPastDue,
	})
}

// ==================== INTERNALS ====================

func (svc *EntitlementService) merge(ctx context.Context, userID, eventKind string, fields map[string]interface{}) (*model.Entitlement, error) {
	ent, err := svc.sqlSvc.MergeEntitlement(userID, fields)
	if err != nil {
		recordWebhookEvent(eventKind, "error")
		return nil, fmt.Errorf("entitlement merge for %s: %w", eventKind, err)
	}

	recordWebhookEvent(eventKind, "applied")

	svc.invalidate(ctx, userID)
	svc.cache(ctx, ent)

	if err := svc.feed.Publish(ctx, ent); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to publish entitlement update")
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"event":   eventKind,
		"status":  ent.Status,
		"type":    ent.Type,
	}).Info("Entitlement updated")

	return ent, nil
}

func (svc *EntitlementService) cache(ctx context.Context, ent *model.Entitlement) {
	if svc.redisSvc == nil || !svc.redisSvc.Enabled() || ent == nil {
		return
	}
	if err := svc.redisSvc.Set(ctx, entitlementCacheKey(ent.UserID), ent, entitlementCacheTTL); err != nil {
		log.WithError(err).Debug("Entitlement cache write failed")
	}
}

func (svc *EntitlementService) invalidate(ctx context.Context, userID string) {
	if svc.redisSvc == nil || !svc.redisSvc.Enabled() {
		return
	}
	if err := svc.redisSvc.Delete(ctx, entitlementCacheKey(userID)); err != nil {
		log.WithError(err).Debug("Entitlement cache invalidation failed")
	}
}
