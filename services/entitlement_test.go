package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/algoviz-app/algoviz_api/model"
	"github.com/algoviz-app/algoviz_api/shared"
)

func TestApplyCheckoutCompletedConvergesOnRedelivery(t *testing.T) {
	svc := newTestEntitlements(t, newTestSql(t))
	ctx := context.Background()

	ev := CheckoutCompleted{
		UserID:         "alice@example_com",
		PlanID:         shared.PlanYearly,
		CustomerID:     "cus_123",
		SessionID:      "cs_123",
		SubscriptionID: "sub_123",
	}

	first, err := svc.ApplyCheckoutCompleted(ctx, ev)
	require.NoError(t, err)
	require.Equal(t, shared.EntitlementStatusActive, first.Status)
	require.Equal(t, shared.EntitlementTypeSubscription, first.Type)
	require.Equal(t, "sub_123", first.StripeSubscriptionID)

	// At-least-once delivery: the same event lands again.
	second, err := svc.ApplyCheckoutCompleted(ctx, ev)
	require.NoError(t, err)
	require.Equal(t, first.Status, second.Status)
	require.Equal(t, first.Type, second.Type)
	require.Equal(t, first.PlanID, second.PlanID)
	require.Equal(t, first.StripeCustomerID, second.StripeCustomerID)
	require.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestApplyLifetimePaymentNeverExpires(t *testing.T) {
	sqlSvc := newTestSql(t)
	svc := newTestEntitlements(t, sqlSvc)
	ctx := context.Background()

	ent, err := svc.ApplyLifetimePayment(ctx, LifetimePaymentSucceeded{
		UserID:          "bob@example_com",
		PlanID:          shared.PlanLifetime,
		CustomerID:      "cus_777",
		PaymentIntentID: "pi_777",
		Amount:          9900,
		Currency:        "eur",
		CustomerEmail:   "bob@example.com",
		CustomerName:    "Bob",
	})
	require.NoError(t, err)
	require.Equal(t, shared.EntitlementStatusActive, ent.Status)
	require.Equal(t, shared.EntitlementTypeLifetime, ent.Type)
	require.Nil(t, ent.ExpiresAt)
	require.EqualValues(t, 9900, ent.Amount)
	require.True(t, ent.IsPremiumAt(time.Now().UTC().Add(100*365*24*time.Hour)))

	// The purchase backfills a profile for purchasers who never registered.
	user, err := sqlSvc.GetUser("bob@example_com")
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", user.Email)
	require.Equal(t, "Bob", user.Name)
}

func TestApplySubscriptionDeletedStampsCancelledAtOnce(t *testing.T) {
	svc := newTestEntitlements(t, newTestSql(t))
	ctx := context.Background()

	_, err := svc.ApplyCheckoutCompleted(ctx, CheckoutCompleted{
		UserID:         "carol@example_com",
		PlanID:         shared.PlanYearly,
		CustomerID:     "cus_9",
		SessionID:      "cs_9",
		SubscriptionID: "sub_9",
	})
	require.NoError(t, err)

	first, err := svc.ApplySubscriptionDeleted(ctx, "carol@example_com")
	require.NoError(t, err)
	require.Equal(t, shared.EntitlementStatusCancelled, first.Status)
	require.NotNil(t, first.CancelledAt)

	// Cancellation keeps the audit trail intact.
	require.Equal(t, "cus_9", first.StripeCustomerID)
	require.Equal(t, shared.PlanYearly, first.PlanID)

	second, err := svc.ApplySubscriptionDeleted(ctx, "carol@example_com")
	require.NoError(t, err)
	require.NotNil(t, second.CancelledAt)
	require.Equal(t, first.CancelledAt.Unix(), second.CancelledAt.Unix())
}

func TestApplyPaymentFailedBlocksAccess(t *testing.T) {
	svc := newTestEntitlements(t, newTestSql(t))
	ctx := context.Background()

	_, err := svc.ApplyCheckoutCompleted(ctx, CheckoutCompleted{
		UserID:         "dave@example_com",
		PlanID:         shared.PlanYearly,
		SubscriptionID: "sub_5",
	})
	require.NoError(t, err)
	require.True(t, svc.IsPremium(ctx, "dave@example_com"))

	ent, err := svc.ApplyPaymentFailed(ctx, "dave@example_com")
	require.NoError(t, err)
	require.Equal(t, shared.EntitlementStatusPastDue, ent.Status)
	require.False(t, svc.IsPremium(ctx, "dave@example_com"))
}

func TestApplySubscriptionUpdatedMirrorsProviderState(t *testing.T) {
	svc := newTestEntitlements(t, newTestSql(t))
	ctx := context.Background()

	_, err := svc.ApplyCheckoutCompleted(ctx, CheckoutCompleted{
		UserID:         "erin@example_com",
		PlanID:         shared.PlanYearly,
		SubscriptionID: "sub_2",
	})
	require.NoError(t, err)

	periodEnd := time.Now().UTC().Add(365 * 24 * time.Hour).Truncate(time.Second)

	ent, err := svc.ApplySubscriptionUpdated(ctx, SubscriptionUpdated{
		UserID:         "erin@example_com",
		ProviderActive: false,
		PeriodEnd:      periodEnd,
	})
	require.NoError(t, err)
	require.Equal(t, shared.EntitlementStatusInactive, ent.Status)
	require.False(t, ent.IsPremiumAt(time.Now().UTC()))

	ent, err = svc.ApplySubscriptionUpdated(ctx, SubscriptionUpdated{
		UserID:         "erin@example_com",
		ProviderActive: true,
		PeriodEnd:      periodEnd,
	})
	require.NoError(t, err)
	require.Equal(t, shared.EntitlementStatusActive, ent.Status)
	require.NotNil(t, ent.CurrentPeriodEnd)
	require.True(t, ent.IsPremiumAt(time.Now().UTC()))
}

func TestIsPremiumAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name string
		ent  *model.Entitlement
		want bool
	}{
		{"nil record", nil, false},
		{"active lifetime", &model.Entitlement{
			Status: shared.EntitlementStatusActive,
			Type:   shared.EntitlementTypeLifetime,
		}, true},
		{"lifetime ignores expiry", &model.Entitlement{
			Status:    shared.EntitlementStatusActive,
			Type:      shared.EntitlementTypeLifetime,
			ExpiresAt: &past,
		}, true},
		{"active subscription without expiry", &model.Entitlement{
			Status: shared.EntitlementStatusActive,
			Type:   shared.EntitlementTypeSubscription,
		}, true},
		{"active subscription before expiry", &model.Entitlement{
			Status:    shared.EntitlementStatusActive,
			Type:      shared.EntitlementTypeSubscription,
			ExpiresAt: &future,
		}, true},
		{"active subscription past expiry", &model.Entitlement{
			Status:    shared.EntitlementStatusActive,
			Type:      shared.EntitlementTypeSubscription,
			ExpiresAt: &past,
		}, false},
		{"cancelled subscription", &model.Entitlement{
			Status: shared.EntitlementStatusCancelled,
			Type:   shared.EntitlementTypeSubscription,
		}, false},
		{"past due subscription", &model.Entitlement{
			Status: shared.EntitlementStatusPastDue,
			Type:   shared.EntitlementTypeSubscription,
		}, false},
		{"active with unknown type", &model.Entitlement{
			Status: shared.EntitlementStatusActive,
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.ent.IsPremiumAt(now))
		})
	}
}

func TestIsPremiumMissingRecordMeansFreeTier(t *testing.T) {
	svc := newTestEntitlements(t, newTestSql(t))
	require.False(t, svc.IsPremium(context.Background(), "nobody@example_com"))
}

func TestWatchWakesOnPublish(t *testing.T) {
	svc := newTestEntitlements(t, newTestSql(t))
	ctx := context.Background()

	type result struct {
		ent     *model.Entitlement
		changed bool
		err     error
	}
	done := make(chan result, 1)

	go func() {
		ent, changed, err := svc.Watch(ctx, "frank@example_com", 5*time.Second)
		done <- result{ent, changed, err}
	}()

	// Give the watcher time to subscribe before the event lands.
	time.Sleep(100 * time.Millisecond)

	_, err := svc.ApplyCheckoutCompleted(ctx, CheckoutCompleted{
		UserID:         "frank@example_com",
		PlanID:         shared.PlanYearly,
		SubscriptionID: "sub_w",
	})
	require.NoError(t, err)

	select {
	case res := <-done:
		require.NoError(t, res.err)
		require.True(t, res.changed)
		require.NotNil(t, res.ent)
		require.Equal(t, shared.EntitlementStatusActive, res.ent.Status)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher never woke up")
	}
}

func TestWatchTimeoutReturnsCurrentState(t *testing.T) {
	svc := newTestEntitlements(t, newTestSql(t))
	ctx := context.Background()

	// No record at all: the timeout resolves to the free tier, not an error.
	ent, changed, err := svc.Watch(ctx, "ghost@example_com", 50*time.Millisecond)
	require.NoError(t, err)
	require.False(t, changed)
	require.Nil(t, ent)

	_, err = svc.ApplyCheckoutCompleted(ctx, CheckoutCompleted{
		UserID:         "grace@example_com",
		PlanID:         shared.PlanYearly,
		SubscriptionID: "sub_t",
	})
	require.NoError(t, err)

	ent, changed, err = svc.Watch(ctx, "grace@example_com", 50*time.Millisecond)
	require.NoError(t, err)
	require.False(t, changed)
	require.NotNil(t, ent)
	require.Equal(t, shared.EntitlementStatusActive, ent.Status)
}
