package config

import (
	detectionHandler "FocusDetect/internal/api/detection/handler"
	detectionService "FocusDetect/internal/api/detection/service"
	navigationHandler "FocusDetect/internal/api/navigation/handler"
	navigationRepository "FocusDetect/internal/api/navigation/repository"
	navigationService "FocusDetect/internal/api/navigation/service"
	"FocusDetect/internal/middleware"
	"FocusDetect/internal/view"
	"FocusDetect/pkg/detector"
	"FocusDetect/pkg/redis"
	"FocusDetect/pkg/staging"
	"FocusDetect/pkg/utils"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	env         Env
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	detector    detector.Detector
	redisServer redis.IRedis
	stager      *staging.Stager
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{env: LoadEnv()}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.detector == nil {
		return nil, fmt.Errorf("detector is required")
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log, middleware.DefaultConfig())
	}
	if server.utils == nil {
		server.utils = utils.NewWithLimit(server.env.MaxUploadBytes())
	}
	if server.stager == nil {
		server.stager = staging.New(server.env.UploadDir, server.log)
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithEnv(env Env) ServerOption {
	return func(s *Server) error {
		s.env = env
		return nil
	}
}

func WithDetector(d detector.Detector) ServerOption {
	return func(s *Server) error {
		if d == nil {
			return errors.New("detector is nil")
		}
		s.detector = d
		return nil
	}
}

// WithRedisServer switches session storage to Redis. A nil client keeps the
// in-memory store.
func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, middleware.Config{
			RateLimit:    rate.Limit(s.env.RateLimitRPS),
			RateBurst:    s.env.RateLimitBurst,
			SessionTTL:   s.env.SessionTTL,
			SecureCookie: s.env.IsProduction(),
		})
		return nil
	}
}

func WithStager(stager *staging.Stager) ServerOption {
	return func(s *Server) error {
		s.stager = stager
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.NewWithLimit(s.env.MaxUploadBytes())
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Navigation
	navigationRepo := navigationRepository.New(s.redisServer, s.env.SessionTTL, s.log)
	navigationServices := navigationService.NewNavigationService(s.log, navigationRepo)

	// Detection
	detectionServices := detectionService.NewDetectionService(s.log, s.detector, s.stager, s.utils, s.env.ConfidenceThreshold)
	detectionHandlers := detectionHandler.New(s.log, s.validator, s.middleware, detectionServices, navigationServices, s.utils)

	navigationHandlers := navigationHandler.New(s.log, s.validator, s.middleware, navigationServices, detectionServices.DefaultThreshold())

	s.handlers = append(s.handlers, navigationHandlers, detectionHandlers)
}

// mount installs the middleware chain and every handler on the engine.
func (s *Server) mount() {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	s.engine.Use(s.middleware.NewSessionMiddleware())
	s.engine.Use(s.middleware.NewRateLimiter)

	s.setupHealthCheck()
	s.setupStatic()

	for _, h := range s.handlers {
		h.Start(s.engine)
	}
}

func (s *Server) Run() error {
	s.mount()

	if err := s.engine.Listen(fmt.Sprintf(":%s", s.env.Port)); err != nil {
		return err
	}

	return nil
}

// Shutdown stops accepting requests and releases the detector and Redis.
func (s *Server) Shutdown(timeout time.Duration) error {
	var errs []error

	if err := s.engine.ShutdownWithTimeout(timeout); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := s.detector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close detector: %w", err))
	}
	if s.redisServer != nil {
		if err := s.redisServer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
			"labels":  len(s.detector.Labels()),
		})
	})
}

func (s *Server) setupStatic() {
	s.engine.Use("/static", filesystem.New(filesystem.Config{
		Root:   view.Static(),
		MaxAge: 3600,
	}))
}
