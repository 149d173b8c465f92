package handlers

import (
	"context"
	"mime/multipart"
	"time"

	stripe "github.com/stripe/stripe-go/v76"

	"github.com/algoviz-app/algoviz_api/dto"
	"github.com/algoviz-app/algoviz_api/model"
)

type AuthServiceInterface interface {
	Register(req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(req dto.LoginRequest) (*dto.LoginResponse, error)
}

type JWTServiceInterface interface {
	MintStoreToken(canonicalID, email, name, picture string) (*dto.StoreTokenResponse, error)
}

type UserServiceInterface interface {
	GetProfile(userID string) (*dto.UserProfileResponse, error)
	UpdateProfile(userID string, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error)
	UpdatePreferences(userID string, req *dto.UpdatePreferencesRequest) (*dto.UserProfileResponse, error)
}

type BillingServiceInterface interface {
	Plans() []dto.PlanResponse
	CreateCheckoutSession(userID, email, planID string) (*dto.CheckoutResponse, error)
	CreatePaymentIntent(userID, email, name, planID string) (*dto.PaymentIntentResponse, error)
	CreatePortalSession(ctx context.Context, userID string) (*dto.PortalResponse, error)
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
	ProcessWebhookEvent(ctx context.Context, event stripe.Event) error
}

type EntitlementServiceInterface interface {
	GetEntitlement(ctx context.Context, userID string) (*model.Entitlement, error)
	IsPremium(ctx context.Context, userID string) bool
	Watch(ctx context.Context, userID string, timeout time.Duration) (*model.Entitlement, bool, error)
}

type ProgressServiceInterface interface {
	GetProgress(userID, lessonID string) (*dto.ProgressResponse, error)
	SaveProgress(userID, lessonID string, req *dto.SaveProgressRequest) (*dto.ProgressResponse, error)
	MarkComplete(userID, lessonID string) (*dto.ProgressResponse, error)
	AddTime(userID, lessonID string, seconds int) (*dto.ProgressResponse, error)
	GetSummary(userID string) (*dto.ProgressSummaryResponse, error)
	AddBookmark(userID, lessonID, title string) (*dto.BookmarkResponse, error)
	RemoveBookmark(userID, lessonID string) error
	ListBookmarks(userID string) ([]dto.BookmarkResponse, error)
}

type ContentServiceInterface interface {
	ListLessons(ctx context.Context, userID string) (*dto.LessonListResponse, error)
	GetLesson(ctx context.Context, userID, lessonID string) (*dto.LessonResponse, error)
	CheckLessonAccess(ctx context.Context, userID, lessonID string) (*dto.LessonAccessResponse, error)
	UpsertLesson(req *dto.UpsertLessonRequest) (*dto.LessonResponse, error)
}

type MediaServiceInterface interface {
	UploadLessonAnimation(lessonID string, file *multipart.FileHeader) (*dto.MediaUploadResponse, error)
	UploadLessonIllustration(lessonID string, file *multipart.FileHeader) (*dto.MediaUploadResponse, error)
	UploadLessonThumbnail(lessonID string, file *multipart.FileHeader) (*dto.MediaUploadResponse, error)
	GetLessonMedia(lessonID string) (*dto.LessonMediaResponse, error)
}
