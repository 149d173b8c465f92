package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/algoviz-app/algoviz_api/shared"
)

const testWebhookSecret = "whsec_test_secret"

// signedPayload wraps an event body in a valid Stripe-Signature header the
// way the gateway does when delivering a webhook.
func signedPayload(t *testing.T, body string) ([]byte, string) {
	t.Helper()

	payload := []byte(body)
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	header := fmt.Sprintf("t=%d,v1=%x", now.Unix(), sig)
	return payload, header
}

func eventBody(eventType, object string) string {
	return fmt.Sprintf(`{"id":"evt_1","api_version":%q,"type":%q,"data":{"object":%s}}`,
		stripe.APIVersion, eventType, object)
}

func TestVerifyWebhookAcceptsValidSignature(t *testing.T) {
	svc := &BillingService{webhookSecret: testWebhookSecret}

	payload, header := signedPayload(t, eventBody("checkout.session.completed", `{"id":"cs_1"}`))

	event, err := svc.VerifyWebhook(payload, header)
	require.NoError(t, err)
	require.Equal(t, "checkout.session.completed", string(event.Type))
}

func TestVerifyWebhookRejectsTamperedPayload(t *testing.T) {
	svc := &BillingService{webhookSecret: testWebhookSecret}

	payload, header := signedPayload(t, eventBody("checkout.session.completed", `{"id":"cs_1"}`))
	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-2] = 'x'

	_, err := svc.VerifyWebhook(tampered, header)
	require.Error(t, err)

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	require.Equal(t, 400, appErr.StatusCode)
}

func TestVerifyWebhookRejectsMissingHeader(t *testing.T) {
	svc := &BillingService{webhookSecret: testWebhookSecret}

	_, err := svc.VerifyWebhook([]byte(`{}`), "")
	require.Error(t, err)

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	require.Equal(t, 400, appErr.StatusCode)
}

func TestVerifyWebhookRequiresConfiguredSecret(t *testing.T) {
	svc := &BillingService{}

	_, err := svc.VerifyWebhook([]byte(`{}`), "t=1,v1=deadbeef")
	require.Error(t, err)

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	require.Equal(t, 500, appErr.StatusCode)
}

func webhookEvent(t *testing.T, eventType string, object interface{}) stripe.Event {
	t.Helper()

	raw, err := json.Marshal(object)
	require.NoError(t, err)

	return stripe.Event{
		ID:   "evt_test",
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestProcessWebhookEventCheckoutCompleted(t *testing.T) {
	sqlSvc := newTestSql(t)
	svc := &BillingService{entSvc: newTestEntitlements(t, sqlSvc)}

	event := webhookEvent(t, "checkout.session.completed", map[string]interface{}{
		"id":           "cs_42",
		"customer":     map[string]interface{}{"id": "cus_42"},
		"subscription": map[string]interface{}{"id": "sub_42"},
		"metadata": map[string]string{
			"userId": "henry@example_com",
			"planId": shared.PlanYearly,
		},
	})

	require.NoError(t, svc.ProcessWebhookEvent(context.Background(), event))

	ent, err := sqlSvc.GetEntitlement("henry@example_com")
	require.NoError(t, err)
	require.Equal(t, shared.EntitlementStatusActive, ent.Status)
	require.Equal(t, shared.EntitlementTypeSubscription, ent.Type)
	require.Equal(t, "cus_42", ent.StripeCustomerID)
	require.Equal(t, "sub_42", ent.StripeSubscriptionID)
	require.Equal(t, "cs_42", ent.StripeSessionID)
}

func TestProcessWebhookEventSubscriptionLifecycle(t *testing.T) {
	sqlSvc := newTestSql(t)
	svc := &BillingService{entSvc: newTestEntitlements(t, sqlSvc)}
	ctx := context.Background()

	checkout := webhookEvent(t, "checkout.session.completed", map[string]interface{}{
		"id":           "cs_7",
		"subscription": map[string]interface{}{"id": "sub_7"},
		"metadata": map[string]string{
			"userId": "iris@example_com",
			"planId": shared.PlanYearly,
		},
	})
	require.NoError(t, svc.ProcessWebhookEvent(ctx, checkout))

	updated := webhookEvent(t, "customer.subscription.updated", map[string]interface{}{
		"id":                 "sub_7",
		"status":             "past_due",
		"current_period_end": time.Now().Add(24 * time.Hour).Unix(),
		"metadata":           map[string]string{"userId": "iris@example_com"},
	})
	require.NoError(t, svc.ProcessWebhookEvent(ctx, updated))

	ent, err := sqlSvc.GetEntitlement("iris@example_com")
	require.NoError(t, err)
	require.Equal(t, shared.EntitlementStatusInactive, ent.Status)

	deleted := webhookEvent(t, "customer.subscription.deleted", map[string]interface{}{
		"id":       "sub_7",
		"metadata": map[string]string{"userId": "iris@example_com"},
	})
	require.NoError(t, svc.ProcessWebhookEvent(ctx, deleted))

	ent, err = sqlSvc.GetEntitlement("iris@example_com")
	require.NoError(t, err)
	require.Equal(t, shared.EntitlementStatusCancelled, ent.Status)
	require.NotNil(t, ent.CancelledAt)
}

func TestProcessWebhookEventSkipsMissingUserAttribution(t *testing.T) {
	sqlSvc := newTestSql(t)
	svc := &BillingService{entSvc: newTestEntitlements(t, sqlSvc)}

	event := webhookEvent(t, "checkout.session.completed", map[string]interface{}{
		"id": "cs_orphan",
	})

	// Skipped, not failed: the gateway must not redeliver.
	require.NoError(t, svc.ProcessWebhookEvent(context.Background(), event))

	var count int64
	sqlSvc.Db().Table("entitlements").Count(&count)
	require.Zero(t, count)
}

func TestProcessWebhookEventIgnoresUnknownKinds(t *testing.T) {
	svc := &BillingService{entSvc: newTestEntitlements(t, newTestSql(t))}

	event := webhookEvent(t, "product.created", map[string]interface{}{"id": "prod_1"})
	require.NoError(t, svc.ProcessWebhookEvent(context.Background(), event))
}

func TestProcessWebhookEventLifetimePayment(t *testing.T) {
	sqlSvc := newTestSql(t)
	svc := &BillingService{entSvc: newTestEntitlements(t, sqlSvc)}

	event := webhookEvent(t, "payment_intent.succeeded", map[string]interface{}{
		"id":       "pi_9",
		"amount":   9900,
		"currency": "eur",
		"metadata": map[string]string{
			"userId": "jack@example_com",
			"planId": shared.PlanLifetime,
			"type":   "lifetime",
		},
	})

	require.NoError(t, svc.ProcessWebhookEvent(context.Background(), event))

	ent, err := sqlSvc.GetEntitlement("jack@example_com")
	require.NoError(t, err)
	require.Equal(t, shared.EntitlementTypeLifetime, ent.Type)
	require.Equal(t, "pi_9", ent.StripePaymentIntentID)
	require.EqualValues(t, 9900, ent.Amount)
	require.Equal(t, "eur", ent.Currency)
}

func TestProcessWebhookEventSkipsNonLifetimePaymentIntents(t *testing.T) {
	sqlSvc := newTestSql(t)
	svc := &BillingService{entSvc: newTestEntitlements(t, sqlSvc)}

	// Payment intents for subscription invoices settle through invoice.paid;
	// only explicitly tagged lifetime intents are folded here.
	event := webhookEvent(t, "payment_intent.succeeded", map[string]interface{}{
		"id":       "pi_sub",
		"metadata": map[string]string{"userId": "kate@example_com"},
	})

	require.NoError(t, svc.ProcessWebhookEvent(context.Background(), event))

	var count int64
	sqlSvc.Db().Table("entitlements").Count(&count)
	require.Zero(t, count)
}

func TestPlanCatalog(t *testing.T) {
	svc := &BillingService{yearlyPriceID: "price_y", lifetimePriceID: "price_l"}

	plans := svc.Plans()
	require.Len(t, plans, 2)

	yearly := svc.plan(shared.PlanYearly)
	require.NotNil(t, yearly)
	require.Equal(t, "price_y", yearly.PriceID)

	lifetime := svc.plan(shared.PlanLifetime)
	require.NotNil(t, lifetime)
	require.Equal(t, "price_l", lifetime.PriceID)
	require.Greater(t, lifetime.Price, yearly.Price)

	require.Nil(t, svc.plan("weekly"))
}
