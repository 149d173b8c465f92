package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/algoviz-app/algoviz_api/dto"
	"github.com/algoviz-app/algoviz_api/model"
	"github.com/algoviz-app/algoviz_api/shared"
)

const watchTimeout = 25 * time.Second

type BillingHandler struct {
	billingSvc BillingServiceInterface
	entSvc     EntitlementServiceInterface
}

func NewBillingHandler(billingSvc BillingServiceInterface, entSvc EntitlementServiceInterface) *BillingHandler {
	return &BillingHandler{
		billingSvc: billingSvc,
		entSvc:     entSvc,
	}
}

// @Summary List plans
// @Description List the purchasable plans
// @Tags billing
// @Produce json
// @Success 200 {object} shared.Response{data=[]dto.PlanResponse}
// @Router /api/v1/billing/plans [get]
func (h *BillingHandler) Plans(c *fiber.Ctx) error {
	return shared.ResponseJSON(c, http.StatusOK, "Plans", h.billingSvc.Plans())
}

// @Summary Create checkout session
// @Description Create a hosted checkout session for the selected plan
// @Tags billing
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param checkoutRequest body dto.CheckoutRequest true "Plan selection"
// @Success 200 {object} shared.Response{data=dto.CheckoutResponse}
// @Router /api/v1/billing/checkout [post]
func (h *BillingHandler) Checkout(c *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	userID := c.Locals(shared.UserID).(string)
	email := c.Locals(shared.UserEmail).(string)

	resp, err := h.billingSvc.CreateCheckoutSession(userID, email, req.PlanID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Checkout session created", resp)
}

// @Summary Create payment intent
// @Description Create a payment intent (lifetime) or incomplete subscription (yearly) for the embedded payment form
// @Tags billing
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param paymentIntentRequest body dto.PaymentIntentRequest true "Plan selection"
// @Success 200 {object} shared.Response{data=dto.PaymentIntentResponse}
// @Router /api/v1/billing/payment-intent [post]
func (h *BillingHandler) PaymentIntent(c *fiber.Ctx) error {
	var req dto.PaymentIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	userID := c.Locals(shared.UserID).(string)
	email := c.Locals(shared.UserEmail).(string)

	resp, err := h.billingSvc.CreatePaymentIntent(userID, email, "", req.PlanID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Payment intent created", resp)
}

// @Summary Create billing portal session
// @Description Open the provider's billing portal for the caller's customer record
// @Tags billing
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.PortalResponse}
// @Router /api/v1/billing/portal [post]
func (h *BillingHandler) Portal(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.billingSvc.CreatePortalSession(c.Context(), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Portal session created", resp)
}

// @Summary Payment webhook
// @Description Receive payment gateway events. Verified by signature, no bearer auth.
// @Tags billing
// @Accept json
// @Produce json
// @Success 200 {object} dto.WebhookAck
// @Router /api/v1/billing/webhook [post]
func (h *BillingHandler) Webhook(c *fiber.Ctx) error {
	event, err := h.billingSvc.VerifyWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		return err
	}

	if err := h.billingSvc.ProcessWebhookEvent(c.Context(), event); err != nil {
		log.WithError(err).WithField("event_type", event.Type).Error("Webhook processing failed")
		return shared.NewInternalError(err, "Webhook processing failed")
	}

	return c.Status(http.StatusOK).JSON(dto.WebhookAck{Received: true})
}

// @Summary Get subscription
// @Description Current entitlement record for the caller. A user who never purchased gets the free-tier default.
// @Tags billing
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.EntitlementResponse}
// @Router /api/v1/subscription [get]
func (h *BillingHandler) GetSubscription(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	ent, err := h.entSvc.GetEntitlement(c.Context(), userID)
	if err != nil {
		if appErr, ok := shared.GetAppError(err); ok && appErr.StatusCode == http.StatusNotFound {
			return shared.ResponseJSON(c, http.StatusOK, "Subscription", freeTierResponse(userID))
		}
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Subscription", toEntitlementResponse(ent))
}

// @Summary Watch subscription
// @Description Long-poll for an entitlement change. Returns when the record changes or the wait times out.
// @Tags billing
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.EntitlementResponse}
// @Router /api/v1/subscription/watch [get]
func (h *BillingHandler) WatchSubscription(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	ent, _, err := h.entSvc.Watch(c.Context(), userID, watchTimeout)
	if err != nil {
		return err
	}
	if ent == nil {
		return shared.ResponseJSON(c, http.StatusOK, "Subscription", freeTierResponse(userID))
	}

	return shared.ResponseJSON(c, http.StatusOK, "Subscription", toEntitlementResponse(ent))
}

func toEntitlementResponse(ent *model.Entitlement) *dto.EntitlementResponse {
	return &dto.EntitlementResponse{
		UserID:           ent.UserID,
		Status:           ent.Status,
		Type:             ent.Type,
		PlanID:           ent.PlanID,
		IsPremium:        ent.IsPremiumAt(time.Now().UTC()),
		CurrentPeriodEnd: ent.CurrentPeriodEnd,
		ExpiresAt:        ent.ExpiresAt,
		CancelledAt:      ent.CancelledAt,
		UpdatedAt:        ent.UpdatedAt,
	}
}

func freeTierResponse(userID string) *dto.EntitlementResponse {
	return &dto.EntitlementResponse{
		UserID:    userID,
		Status:    shared.EntitlementStatusInactive,
		IsPremium: false,
		UpdatedAt: time.Now().UTC(),
	}
}
