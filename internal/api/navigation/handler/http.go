package navigationHandler

import (
	navigationService "FocusDetect/internal/api/navigation/service"
	"FocusDetect/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type NavigationHandler struct {
	log               *logrus.Logger
	validator         *validator.Validate
	middleware        middleware.Middleware
	navigationService navigationService.INavigationService
	defaultThreshold  float64
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ns navigationService.INavigationService,
	defaultThreshold float64,
) *NavigationHandler {
	return &NavigationHandler{
		log:               log,
		validator:         validator,
		middleware:        middleware,
		navigationService: ns,
		defaultThreshold:  defaultThreshold,
	}
}

func (h *NavigationHandler) Start(srv fiber.Router) {
	srv.Get("/", h.Index)
	srv.Post("/navigate", h.NavigateForm)

	api := srv.Group("/api/v1")
	api.Get("/session", h.GetSession)
	api.Post("/navigate", h.Navigate)
}
