package services

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/algoviz-app/algoviz_api/shared"
)

// RateLimitService applies fixed-window limits keyed by IP or user. Counters
// live in redis when it is configured so limits hold across replicas, with
// an in-process fallback otherwise.
type RateLimitService struct {
	appContext.DefaultService

	configs map[string]*RateLimitConfig
	mutex   sync.RWMutex

	redisSvc *RedisService

	// fallback windows when redis is disabled
	local map[string]*localWindow
}

type RateLimitConfig struct {
	EndpointType string
	MaxRequests  int
	WindowSize   time.Duration
	Description  string
	IsActive     bool
}

type localWindow struct {
	count   int
	resetAt time.Time
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	svc.configs = make(map[string]*RateLimitConfig)
	svc.local = make(map[string]*localWindow)
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	svc.initDefaultConfigs()
	return nil
}

func (svc *RateLimitService) initDefaultConfigs() {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	svc.configs = map[string]*RateLimitConfig{
		"login": {
			EndpointType: "login",
			MaxRequests:  10,
			WindowSize:   15 * time.Minute,
			Description:  "Login attempts rate limit",
			IsActive:     true,
		},
		"register": {
			EndpointType: "register",
			MaxRequests:  5,
			WindowSize:   15 * time.Minute,
			Description:  "Registration rate limit",
			IsActive:     true,
		},
		"checkout": {
			EndpointType: "checkout",
			MaxRequests:  10,
			WindowSize:   time.Hour,
			Description:  "Checkout session creation rate limit",
			IsActive:     true,
		},
		"payment_intent": {
			EndpointType: "payment_intent",
			MaxRequests:  15,
			WindowSize:   time.Hour,
			Description:  "Payment intent creation rate limit",
			IsActive:     true,
		},
		"api_general": {
			EndpointType: "api_general",
			MaxRequests:  1000,
			WindowSize:   time.Hour,
			Description:  "General API rate limit per IP",
			IsActive:     true,
		},
	}
}

// ==================== CORE RATE LIMITING LOGIC ====================

type rateLimitInfo struct {
	Allowed   bool
	Remaining int
	ResetAt   *time.Time
}

func (svc *RateLimitService) IsAllowed(identifier, endpointType string) (bool, *rateLimitInfo, error) {
	svc.mutex.RLock()
	config, exists := svc.configs[endpointType]
	svc.mutex.RUnlock()

	if !exists || !config.IsActive {
		return true, &rateLimitInfo{Allowed: true, Remaining: -1}, nil
	}

	if svc.redisSvc != nil && svc.redisSvc.Enabled() {
		return svc.checkRedis(identifier, endpointType, config)
	}
	return svc.checkLocal(identifier, endpointType, config)
}

func (svc *RateLimitService) checkRedis(identifier, endpointType string, config *RateLimitConfig) (bool, *rateLimitInfo, error) {
	ctx := context.Background()
	key := fmt.Sprintf("ratelimit:%s:%s", endpointType, identifier)

	count, err := svc.redisSvc.Increment(ctx, key)
	if err != nil {
		return false, nil, err
	}
	if count == 1 {
		if err := svc.redisSvc.Expire(ctx, key, config.WindowSize); err != nil {
			return false, nil, err
		}
	}

	var resetAt *time.Time
	if ttl, err := svc.redisSvc.TTL(ctx, key); err == nil && ttl > 0 {
		t := time.Now().Add(ttl)
		resetAt = &t
	}

	remaining := config.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return int(count) <= config.MaxRequests, &rateLimitInfo{
		Allowed:   int(count) <= config.MaxRequests,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

func (svc *RateLimitService) checkLocal(identifier, endpointType string, config *RateLimitConfig) (bool, *rateLimitInfo, error) {
	key := endpointType + ":" + identifier
	now := time.Now()

	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	win, ok := svc.local[key]
	if !ok || now.After(win.resetAt) {
		win = &localWindow{resetAt: now.Add(config.WindowSize)}
		svc.local[key] = win
	}
	win.count++

	remaining := config.MaxRequests - win.count
	if remaining < 0 {
		remaining = 0
	}

	resetAt := win.resetAt
	return win.count <= config.MaxRequests, &rateLimitInfo{
		Allowed:   win.count <= config.MaxRequests,
		Remaining: remaining,
		ResetAt:   &resetAt,
	}, nil
}

// ==================== MIDDLEWARE FUNCTIONS ====================

// RateLimit limits by endpoint type, keyed on the caller's IP.
func (svc *RateLimitService) RateLimit(endpointType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := getClientIP(c)

		allowed, info, err := svc.IsAllowed(identifier, endpointType)
		if err != nil {
			log.Printf("Rate limit check error for %s (%s): %v", endpointType, identifier, err)
			// Continue with request on error to avoid blocking users due to system issues
			return c.Next()
		}

		svc.addRateLimitHeaders(c, info)

		if !allowed {
			return svc.handleRateLimitExceeded(c, endpointType, info)
		}

		return c.Next()
	}
}

// UserRateLimit limits by authenticated user, falling back to IP.
func (svc *RateLimitService) UserRateLimit(endpointType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := ""
		if userID, ok := c.Locals(shared.UserID).(string); ok {
			identifier = userID
		}
		if identifier == "" {
			identifier = getClientIP(c)
		}

		allowed, info, err := svc.IsAllowed(identifier, endpointType)
		if err != nil {
			log.Printf("User rate limit check error for %s (%s): %v", endpointType, identifier, err)
			return c.Next()
		}

		svc.addRateLimitHeaders(c, info)

		if !allowed {
			return svc.handleRateLimitExceeded(c, endpointType, info)
		}

		return c.Next()
	}
}

// ==================== HELPER FUNCTIONS ====================

func (svc *RateLimitService) addRateLimitHeaders(c *fiber.Ctx, info *rateLimitInfo) {
	if info == nil {
		return
	}

	if info.Remaining >= 0 {
		c.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	}

	if info.ResetAt != nil {
		c.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

		retryAfter := int(time.Until(*info.ResetAt).Seconds())
		if !info.Allowed && retryAfter > 0 {
			c.Set("Retry-After", strconv.Itoa(retryAfter))
		}
	}
}

func (svc *RateLimitService) handleRateLimitExceeded(c *fiber.Ctx, endpointType string, info *rateLimitInfo) error {
	message := svc.getRateLimitMessage(endpointType)

	response := map[string]interface{}{
		"error":   "Rate limit exceeded",
		"message": message,
	}
	if info.ResetAt != nil {
		response["retry_after"] = int(time.Until(*info.ResetAt).Seconds())
	}

	return shared.ResponseJSON(c, http.StatusTooManyRequests, message, response)
}

func (svc *RateLimitService) getRateLimitMessage(endpointType string) string {
	messages := map[string]string{
		"login":          "Too many login attempts. Please try again later.",
		"register":       "Too many registration attempts. Please try again later.",
		"checkout":       "Too many checkout attempts. Please try again later.",
		"payment_intent": "Too many payment attempts. Please try again later.",
		"api_general":    "Too many requests. Please slow down.",
	}

	if message, exists := messages[endpointType]; exists {
		return message
	}

	return "Too many requests. Please try again later."
}

// ==================== UTILITY FUNCTIONS ====================

func getClientIP(c *fiber.Ctx) string {
	forwarded := c.Get("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			ip := strings.TrimSpace(ips[0])
			if ip != "" {
				return ip
			}
		}
	}

	realIP := c.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(c.Context().RemoteAddr().String())
	if err != nil {
		return c.Context().RemoteAddr().String()
	}

	return ip
}
