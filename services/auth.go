package services

import (
	"errors"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/algoviz-app/algoviz_api/dto"
	"github.com/algoviz-app/algoviz_api/model"
	"github.com/algoviz-app/algoviz_api/shared"
)

type AuthService struct {
	context.DefaultService

	sqlSvc *SqlService
	jwtSvc *JWTService
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	return nil
}

// Register creates the user row under the canonical id derived from the email.
func (svc *AuthService) Register(req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	userID := shared.CanonicalUserID(req.Email)
	if userID == "" {
		return nil, shared.NewBadRequestError(nil, "Invalid email")
	}

	if _, err := svc.sqlSvc.GetUserByEmail(req.Email); err == nil {
		return nil, shared.NewConflictError(nil, "Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to hash password")
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:                 userID,
		Email:              req.Email,
		Name:               req.Name,
		Provider:           "credentials",
		Password:           string(hash),
		Role:               shared.RoleUser,
		Language:           "python",
		Theme:              "system",
		EmailNotifications: true,
		LastLoginAt:        now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := svc.sqlSvc.CreateUser(user); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": userID}).Info("User registered")

	return &dto.RegisterResponse{UserID: userID, Email: req.Email}, nil
}

func (svc *AuthService) Login(req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := svc.sqlSvc.GetUserByEmail(req.Email)
	if err != nil {
		return nil, shared.NewUnauthorizedError(nil, "Invalid credentials")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, shared.NewUnauthorizedError(nil, "Invalid credentials")
	}

	tokens, err := svc.jwtSvc.GenerateTokenPair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue tokens")
	}

	if err := svc.sqlSvc.UpdateUserFields(user.ID, map[string]interface{}{
		"last_login_at": time.Now().UTC(),
	}); err != nil {
		log.WithError(err).Warn("Failed to record last login")
	}

	return &dto.LoginResponse{
		UserID: user.ID,
		Email:  user.Email,
		Tokens: *tokens,
	}, nil
}

// RequiredAuth verifies the bearer token and stashes the canonical user id,
// email and role in request locals.
func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := svc.verifyRequest(c)
		if err != nil {
			return shared.ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}

		c.Locals(shared.UserID, claims.UserID)
		c.Locals(shared.UserEmail, claims.Email)
		c.Locals(shared.UserRole, claims.Role)
		return c.Next()
	}
}

// OptionalAuth populates request locals when a valid bearer token is
// present but lets anonymous requests through.
func (svc *AuthService) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, err := svc.verifyRequest(c); err == nil {
			c.Locals(shared.UserID, claims.UserID)
			c.Locals(shared.UserEmail, claims.Email)
			c.Locals(shared.UserRole, claims.Role)
		}
		return c.Next()
	}
}

func (svc *AuthService) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := svc.verifyRequest(c)
		if err != nil {
			return shared.ResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
		}

		if claims.Role != role {
			return shared.ResponseForbidden(c)
		}

		c.Locals(shared.UserID, claims.UserID)
		c.Locals(shared.UserEmail, claims.Email)
		c.Locals(shared.UserRole, claims.Role)
		return c.Next()
	}
}

func (svc *AuthService) verifyRequest(c *fiber.Ctx) (*CustomClaims, error) {
	token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return nil, err
	}

	claims, err := svc.jwtSvc.VerifyJWTToken(token)
	if err != nil {
		return nil, errors.New("invalid JWT token")
	}

	if claims.UserID == "" {
		return nil, errors.New("invalid user ID in token")
	}

	return claims, nil
}
