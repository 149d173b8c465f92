package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	log "github.com/sirupsen/logrus"

	_ "github.com/algoviz-app/algoviz_api/docs"
	"github.com/algoviz-app/algoviz_api/services/handlers"
	"github.com/algoviz-app/algoviz_api/shared"
)

type HttpService struct {
	context.DefaultService

	authSvc       *AuthService
	jwtSvc        *JWTService
	userSvc       *UserService
	billingSvc    *BillingService
	entSvc        *EntitlementService
	progressSvc   *ProgressService
	contentSvc    *ContentService
	mediaSvc      *MediaService
	rateLimitSvc  *RateLimitService
	monitoringSvc *MonitoringService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	svc.userSvc = svc.Service(USER_SVC).(*UserService)
	svc.billingSvc = svc.Service(BILLING_SVC).(*BillingService)
	svc.entSvc = svc.Service(ENTITLEMENT_SVC).(*EntitlementService)
	svc.progressSvc = svc.Service(PROGRESS_SVC).(*ProgressService)
	svc.contentSvc = svc.Service(CONTENT_SVC).(*ContentService)
	svc.mediaSvc = svc.Service(MEDIA_SVC).(*MediaService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.monitoringSvc = svc.Service(MONITORING_SVC).(*MonitoringService)

	app := fiber.New(fiber.Config{
		AppName:      SERVICE_NAME,
		JSONEncoder:  shared.JSONMarshal,
		JSONDecoder:  shared.JSONUnmarshal,
		ErrorHandler: svc.handleError,
		BodyLimit:    64 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Stripe-Signature",
	}))
	app.Use(MonitoringMiddleware(svc.monitoringSvc))

	svc.registerRoutes(app)

	svc.server = app

	log.WithField("port", svc.port).Info("HTTP service starting")
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *HttpService) registerRoutes(app *fiber.App) {
	authHandler := handlers.NewAuthHandler(svc.authSvc, svc.jwtSvc, svc.userSvc)
	billingHandler := handlers.NewBillingHandler(svc.billingSvc, svc.entSvc)
	progressHandler := handlers.NewProgressHandler(svc.progressSvc)
	userHandler := handlers.NewUserHandler(svc.userSvc)
	contentHandler := handlers.NewContentHandler(svc.contentSvc)
	mediaHandler := handlers.NewMediaHandler(svc.mediaSvc)

	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", swagger.HandlerDefault)

	v1 := app.Group("/api/v1", svc.rateLimitSvc.RateLimit("api_general"))

	// Auth
	auth := v1.Group("/auth")
	auth.Post("/register", svc.rateLimitSvc.RateLimit("register"), authHandler.Register)
	auth.Post("/login", svc.rateLimitSvc.RateLimit("login"), authHandler.Login)
	auth.Get("/store-token", svc.authSvc.RequiredAuth(), authHandler.StoreToken)

	// Billing
	billing := v1.Group("/billing")
	billing.Get("/plans", billingHandler.Plans)
	billing.Post("/checkout", svc.authSvc.RequiredAuth(), svc.rateLimitSvc.UserRateLimit("checkout"), billingHandler.Checkout)
	billing.Post("/payment-intent", svc.authSvc.RequiredAuth(), svc.rateLimitSvc.UserRateLimit("payment_intent"), billingHandler.PaymentIntent)
	billing.Post("/portal", svc.authSvc.RequiredAuth(), billingHandler.Portal)
	// Webhook is authenticated by signature, not bearer token
	billing.Post("/webhook", billingHandler.Webhook)

	// Subscription
	v1.Get("/subscription", svc.authSvc.RequiredAuth(), billingHandler.GetSubscription)
	v1.Get("/subscription/watch", svc.authSvc.RequiredAuth(), billingHandler.WatchSubscription)

	// Progress
	progress := v1.Group("/progress", svc.authSvc.RequiredAuth())
	progress.Get("/", progressHandler.GetSummary)
	progress.Get("/:lessonId", progressHandler.GetProgress)
	progress.Put("/:lessonId", progressHandler.SaveProgress)
	progress.Post("/:lessonId/complete", progressHandler.MarkComplete)
	progress.Post("/:lessonId/time", progressHandler.AddTime)

	// Bookmarks
	bookmarks := v1.Group("/bookmarks", svc.authSvc.RequiredAuth())
	bookmarks.Get("/", progressHandler.ListBookmarks)
	bookmarks.Put("/:lessonId", progressHandler.AddBookmark)
	bookmarks.Delete("/:lessonId", progressHandler.RemoveBookmark)

	// User
	user := v1.Group("/user", svc.authSvc.RequiredAuth())
	user.Get("/profile", userHandler.GetProfile)
	user.Put("/profile", userHandler.UpdateProfile)
	user.Put("/preferences", userHandler.UpdatePreferences)

	// Lessons (public, premium gating via optional auth)
	lessons := v1.Group("/lessons", svc.authSvc.OptionalAuth())
	lessons.Get("/", contentHandler.ListLessons)
	lessons.Get("/:lessonId", contentHandler.GetLesson)
	lessons.Get("/:lessonId/access", contentHandler.CheckAccess)
	lessons.Get("/:lessonId/media", mediaHandler.GetLessonMedia)

	// Admin
	admin := v1.Group("/admin", svc.authSvc.RequireRole(shared.RoleAdmin))
	admin.Put("/lessons", contentHandler.UpsertLesson)
	admin.Post("/lessons/:lessonId/media/:kind", mediaHandler.Upload)

	app.Use(func(c *fiber.Ctx) error {
		return shared.ResponseNotFound(c)
	})
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")
	return shared.ResponseJSON(c, http.StatusOK, "Success", "pong")
}

func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		if appErr.StatusCode >= 500 {
			log.WithError(appErr.Err).WithField("path", c.Path()).Error(appErr.Message)
		}
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	return shared.ResponseInternalError(c, err)
}
