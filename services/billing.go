package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/algoviz-app/algoviz_api/dto"
	"github.com/algoviz-app/algoviz_api/shared"
)

// BillingService wraps the payment gateway: plan catalog, checkout / payment
// intent / portal session creation, and webhook verification + dispatch onto
// the entitlement folds.
type BillingService struct {
	appContext.DefaultService

	entSvc *EntitlementService

	sc *client.API

	secretKey       string
	webhookSecret   string
	yearlyPriceID   string
	lifetimePriceID string
	appURL          string
}

const BILLING_SVC = "billing_svc"

type Plan struct {
	ID          string
	Name        string
	Price       int64 // whole currency units
	PriceID     string
	Description string
	Features    []string
	Popular     bool
}

func (svc BillingService) Id() string {
	return BILLING_SVC
}

func (svc *BillingService) Configure(ctx *appContext.Context) error {
	svc.secretKey = os.Getenv("STRIPE_SECRET_KEY")
	svc.webhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	svc.yearlyPriceID = os.Getenv("STRIPE_YEARLY_PRICE_ID")
	svc.lifetimePriceID = os.Getenv("STRIPE_LIFETIME_PRICE_ID")

	svc.appURL = os.Getenv("APP_URL")
	if svc.appURL == "" {
		svc.appURL = "http://localhost:3000"
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *BillingService) Start() error {
	svc.entSvc = svc.Service(ENTITLEMENT_SVC).(*EntitlementService)

	if svc.secretKey == "" {
		log.Warn("STRIPE_SECRET_KEY not set, billing endpoints will refuse requests")
		return nil
	}

	svc.sc = &client.API{}
	svc.sc.Init(svc.secretKey, nil)
	return nil
}

func (svc *BillingService) plan(planID string) *Plan {
	switch planID {
	case shared.PlanLifetime:
		return &Plan{
			ID:          shared.PlanLifetime,
			Name:        "Premium Lifetime",
			Price:       99,
			PriceID:     svc.lifetimePriceID,
			Description: "One-time payment",
			Features: []string{
				"Everything in Yearly",
				"Lifetime access",
				"All future updates",
			},
			Popular: true,
		}
	case shared.PlanYearly:
		return &Plan{
			ID:          shared.PlanYearly,
			Name:        "Premium Yearly",
			Price:       49,
			PriceID:     svc.yearlyPriceID,
			Description: "Billed annually",
			Features: []string{
				"Access to all 75 problems",
				"Interactive visualizations",
				"Progress tracking",
			},
		}
	}
	return nil
}

func (svc *BillingService) Plans() []dto.PlanResponse {
	out := make([]dto.PlanResponse, 0, 2)
	for _, id := range []string{shared.PlanYearly, shared.PlanLifetime} {
		p := svc.plan(id)
		out = append(out, dto.PlanResponse{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price,
			Description: p.Description,
			Features:    p.Features,
			Popular:     p.Popular,
		})
	}
	return out
}

func (svc *BillingService) ready() error {
	if svc.sc == nil {
		return shared.NewConfigError("STRIPE_SECRET_KEY is not configured")
	}
	return nil
}

// ==================== CHECKOUT ====================

// CreateCheckoutSession creates a hosted checkout session for the plan and
// returns its URL. The user id and plan land in session metadata so the
// completion webhook can attribute the purchase.
func (svc *BillingService) CreateCheckoutSession(userID, email, planID string) (*dto.CheckoutResponse, error) {
	if err := svc.ready(); err != nil {
		return nil, err
	}

	plan := svc.plan(planID)
	if plan == nil {
		return nil, shared.NewBadRequestError(nil, "Invalid plan ID")
	}
	if plan.PriceID == "" {
		return nil, shared.NewConfigError(fmt.Sprintf("price ID for plan %q is not configured", planID))
	}

	mode := stripe.CheckoutSessionModeSubscription
	if planID == shared.PlanLifetime {
		mode = stripe.CheckoutSessionModePayment
	}

	params := &stripe.CheckoutSessionParams{
		CustomerEmail:      stripe.String(email),
		Mode:               stripe.String(string(mode)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(plan.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(svc.appURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(svc.appURL + "/pricing"),
	}
	params.AddMetadata("userId", userID)
	params.AddMetadata("planId", planID)

	session, err := svc.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to create checkout session")
	}

	return &dto.CheckoutResponse{URL: session.URL}, nil
}

// ==================== PAYMENT INTENTS ====================

// CreatePaymentIntent backs the embedded payment form: a one-time intent for
// the lifetime plan, a default_incomplete subscription for yearly.
func (svc *BillingService) CreatePaymentIntent(userID, email, name, planID string) (*dto.PaymentIntentResponse, error) {
	if err := svc.ready(); err != nil {
		return nil, err
	}

	plan := svc.plan(planID)
	if plan == nil {
		return nil, shared.NewBadRequestError(nil, "Invalid plan ID")
	}

	customer, err := svc.findOrCreateCustomer(email, name, userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to resolve customer")
	}

	if planID == shared.PlanLifetime {
		params := &stripe.PaymentIntentParams{
			Amount:             stripe.Int64(plan.Price * 100),
			Currency:           stripe.String(string(stripe.CurrencyEUR)),
			Customer:           stripe.String(customer.ID),
			PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		}
		params.AddMetadata("userId", userID)
		params.AddMetadata("planId", planID)
		params.AddMetadata("type", "lifetime")

		intent, err := svc.sc.PaymentIntents.New(params)
		if err != nil {
			return nil, shared.NewInternalError(err, "Failed to create payment intent")
		}

		return &dto.PaymentIntentResponse{
			ClientSecret: intent.ClientSecret,
			Type:         "payment",
			PlanID:       planID,
			Amount:       plan.Price,
		}, nil
	}

	if plan.PriceID == "" {
		return nil, shared.NewConfigError("STRIPE_YEARLY_PRICE_ID is not configured")
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customer.ID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(plan.PriceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	params.AddMetadata("userId", userID)
	params.AddMetadata("planId", planID)
	params.AddMetadata("type", "subscription")
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := svc.sc.Subscriptions.New(params)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to create subscription")
	}
	if sub.LatestInvoice == nil || sub.LatestInvoice.PaymentIntent == nil {
		return nil, shared.NewInternalError(nil, "Subscription created without payment intent")
	}

	return &dto.PaymentIntentResponse{
		ClientSecret:   sub.LatestInvoice.PaymentIntent.ClientSecret,
		SubscriptionID: sub.ID,
		Type:           "subscription",
		PlanID:         planID,
		Amount:         plan.Price,
	}, nil
}

func (svc *BillingService) findOrCreateCustomer(email, name, userID string) (*stripe.Customer, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Limit = stripe.Int64(1)

	iter := svc.sc.Customers.List(listParams)
	for iter.Next() {
		return iter.Customer(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.AddMetadata("userId", userID)

	return svc.sc.Customers.New(params)
}

// ==================== PORTAL ====================

func (svc *BillingService) CreatePortalSession(ctx context.Context, userID string) (*dto.PortalResponse, error) {
	if err := svc.ready(); err != nil {
		return nil, err
	}

	ent, err := svc.entSvc.GetEntitlement(ctx, userID)
	if err != nil {
		return nil, shared.NewNotFoundError(err, "No subscription found")
	}
	if ent.StripeCustomerID == "" {
		return nil, shared.NewNotFoundError(nil, "No billing customer found")
	}

	session, err := svc.sc.BillingPortalSessions.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(ent.StripeCustomerID),
		ReturnURL: stripe.String(svc.appURL + "/billing"),
	})
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to create portal session")
	}

	return &dto.PortalResponse{URL: session.URL}, nil
}

// ==================== WEBHOOKS ====================

// VerifyWebhook checks the signature header against the shared secret. A bad
// signature is the caller's fault and maps to 400; nothing is written.
func (svc *BillingService) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	if svc.webhookSecret == "" {
		return stripe.Event{}, shared.NewConfigError("STRIPE_WEBHOOK_SECRET is not configured")
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, svc.webhookSecret)
	if err != nil {
		recordWebhookEvent("signature", "rejected")
		return stripe.Event{}, shared.NewBadRequestError(err, "Invalid signature")
	}

	return event, nil
}

// ProcessWebhookEvent folds one verified gateway event into the entitlement
// store. Events without a userId in metadata are skipped, unrecognized kinds
// are acknowledged as no-ops; any store failure bubbles up so the gateway
// redelivers.
func (svc *BillingService) ProcessWebhookEvent(ctx context.Context, event stripe.Event) error {
	switch string(event.Type) {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}

		userID := session.Metadata["userId"]
		if userID == "" {
			recordWebhookEvent(string(event.Type), "skipped")
			return nil
		}

		ev := CheckoutCompleted{
			UserID:    userID,
			PlanID:    session.Metadata["planId"],
			SessionID: session.ID,
		}
		if session.Customer != nil {
			ev.CustomerID = session.Customer.ID
		}
		if session.Subscription != nil {
			ev.SubscriptionID = session.Subscription.ID
		}

		_, err := svc.entSvc.ApplyCheckoutCompleted(ctx, ev)
		return err

	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return fmt.Errorf("decode payment intent: %w", err)
		}

		userID := intent.Metadata["userId"]
		if userID == "" || intent.Metadata["type"] != "lifetime" {
			recordWebhookEvent(string(event.Type), "skipped")
			return nil
		}

		ev := LifetimePaymentSucceeded{
			UserID:          userID,
			PlanID:          intent.Metadata["planId"],
			PaymentIntentID: intent.ID,
			Amount:          intent.Amount,
			Currency:        string(intent.Currency),
		}
		if intent.Customer != nil {
			ev.CustomerID = intent.Customer.ID
			if customer, err := svc.getCustomer(intent.Customer.ID); err != nil {
				log.WithError(err).Warn("Failed to fetch customer for receipt")
			} else {
				ev.CustomerEmail = customer.Email
				ev.CustomerName = customer.Name
			}
		}

		_, err := svc.entSvc.ApplyLifetimePayment(ctx, ev)
		return err

	case "invoice.paid":
		inv, sub, err := svc.resolveInvoiceSubscription(event.Data.Raw)
		if err != nil || sub == nil {
			return err
		}

		userID := sub.Metadata["userId"]
		if userID == "" {
			recordWebhookEvent(string(event.Type), "skipped")
			return nil
		}

		ev := InvoicePaid{
			UserID:         userID,
			PlanID:         sub.Metadata["planId"],
			SubscriptionID: sub.ID,
			PeriodEnd:      time.Unix(sub.CurrentPeriodEnd, 0),
		}
		if inv.Customer != nil {
			ev.CustomerID = inv.Customer.ID
		}

		_, err = svc.entSvc.ApplyInvoicePaid(ctx, ev)
		return err

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}

		userID := sub.Metadata["userId"]
		if userID == "" {
			recordWebhookEvent(string(event.Type), "skipped")
			return nil
		}

		_, err := svc.entSvc.ApplySubscriptionUpdated(ctx, SubscriptionUpdated{
			UserID:         userID,
			ProviderActive: sub.Status == stripe.SubscriptionStatusActive,
			PeriodEnd:      time.Unix(sub.CurrentPeriodEnd, 0),
		})
		return err

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}

		userID := sub.Metadata["userId"]
		if userID == "" {
			recordWebhookEvent(string(event.Type), "skipped")
			return nil
		}

		_, err := svc.entSvc.ApplySubscriptionDeleted(ctx, userID)
		return err

	case "invoice.payment_failed":
		_, sub, err := svc.resolveInvoiceSubscription(event.Data.Raw)
		if err != nil || sub == nil {
			return err
		}

		userID := sub.Metadata["userId"]
		if userID == "" {
			recordWebhookEvent(string(event.Type), "skipped")
			return nil
		}

		_, err = svc.entSvc.ApplyPaymentFailed(ctx, userID)
		return err

	default:
		recordWebhookEvent(string(event.Type), "ignored")
		return nil
	}
}

// resolveInvoiceSubscription decodes an invoice payload and fetches its
// subscription from the gateway, since invoice metadata does not carry the
// user attribution.
func (svc *BillingService) resolveInvoiceSubscription(raw json.RawMessage) (*stripe.Invoice, *stripe.Subscription, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, nil, fmt.Errorf("decode invoice: %w", err)
	}

	if inv.Subscription == nil {
		return &inv, nil, nil
	}

	if err := svc.ready(); err != nil {
		return &inv, nil, err
	}

	sub, err := svc.sc.Subscriptions.Get(inv.Subscription.ID, nil)
	if err != nil {
		return &inv, nil, fmt.Errorf("fetch subscription %s: %w", inv.Subscription.ID, err)
	}
	return &inv, sub, nil
}

func (svc *BillingService) getCustomer(customerID string) (*stripe.Customer, error) {
	if err := svc.ready(); err != nil {
		return nil, err
	}
	return svc.sc.Customers.Get(customerID, nil)
}
