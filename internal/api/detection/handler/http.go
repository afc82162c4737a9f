package detectionHandler

import (
	detectionService "FocusDetect/internal/api/detection/service"
	"FocusDetect/internal/api/navigation"
	navigationService "FocusDetect/internal/api/navigation/service"
	"FocusDetect/internal/entity"
	"FocusDetect/internal/middleware"
	"FocusDetect/pkg/handlerUtil"
	"FocusDetect/pkg/utils"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const (
	requestTimeout = 45 * time.Second
	frameTimeout   = 15 * time.Second
	sessionTimeout = 5 * time.Second

	// maxFrameMessageSize bounds one frame socket message: a 10 MB image as
	// base64 plus slack.
	maxFrameMessageSize = 16 * 1024 * 1024
)

type DetectionHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	detectionService detectionService.IDetectionService
	navigation       navigationService.INavigationService
	utils            utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ds detectionService.IDetectionService,
	ns navigationService.INavigationService,
	utils utils.IUtils,
) *DetectionHandler {
	return &DetectionHandler{
		detectionService: ds,
		navigation:       ns,
		log:              log,
		validator:        validator,
		middleware:       middleware,
		utils:            utils,
	}
}

func (h *DetectionHandler) Start(srv fiber.Router) {
	srv.Post("/upload", h.UploadPage)
	srv.Post("/webcam", h.WebcamPage)

	wsMiddleware := func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		requestID := h.middleware.GetRequestID(c)
		active, err := h.viewActive(c, entity.UIStateWebcam)
		if err != nil {
			return handlerUtil.New(h.log).Handle(c, requestID, err, c.Path(), "load_session")
		}
		if !active {
			return handlerUtil.New(h.log).Handle(c, requestID, navigation.ErrViewInactive, c.Path(), "open_frame_socket")
		}
		return c.Next()
	}

	api := srv.Group("/api/v1")
	api.Post("/detect", h.Detect)
	api.Get("/labels", h.Labels)

	webcam := api.Group("/webcam")
	webcam.Use("/ws", wsMiddleware)
	webcam.Get("/ws", websocket.New(h.handleFrameWebSocket))
}
