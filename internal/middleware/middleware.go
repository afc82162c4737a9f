package middleware

import (
	contextPkg "FocusDetect/pkg/context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Middleware interface {
	NewRateLimiter(ctx *fiber.Ctx) error
	NewRequestIDMiddleware() fiber.Handler
	NewSessionMiddleware() fiber.Handler
	NewLoggingMiddleware() fiber.Handler
	GetRequestID(ctx *fiber.Ctx) string
	GetSessionID(ctx *fiber.Ctx) string
}

type Config struct {
	RateLimit    rate.Limit
	RateBurst    int
	SessionTTL   time.Duration
	SecureCookie bool
}

func DefaultConfig() Config {
	return Config{
		RateLimit:  50,
		RateBurst:  100,
		SessionTTL: 24 * time.Hour,
	}
}

type middleware struct {
	rateLimitter        *rateLimiter
	requestIDMiddleware fiber.Handler
	session             *sessionMiddleware
	log                 *logrus.Logger
}

func New(logger *logrus.Logger, cfg Config) Middleware {
	def := DefaultConfig()
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = def.RateBurst
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = def.SessionTTL
	}

	return &middleware{
		rateLimitter:        newRateLimiter(cfg.RateLimit, cfg.RateBurst),
		requestIDMiddleware: NewRequestIDMiddleware(),
		session:             newSessionMiddleware(cfg.SessionTTL, cfg.SecureCookie),
		log:                 logger,
	}
}

func (m *middleware) GetRequestID(ctx *fiber.Ctx) string {
	requestID, ok := ctx.Locals(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

func (m *middleware) GetSessionID(ctx *fiber.Ctx) string {
	sessionID, ok := ctx.Locals(contextPkg.SessionIDKey).(string)
	if !ok || sessionID == "" {
		return "unknown"
	}
	return sessionID
}

func (m *middleware) NewRequestIDMiddleware() fiber.Handler {
	return m.requestIDMiddleware
}
