package navigationHandler

import (
	"FocusDetect/internal/api/navigation"
	"FocusDetect/internal/entity"
	"FocusDetect/internal/view"
	contextPkg "FocusDetect/pkg/context"
	"FocusDetect/pkg/handlerUtil"
	"FocusDetect/pkg/log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const requestTimeout = 5 * time.Second

// Index renders whichever view the session is on.
func (h *NavigationHandler) Index(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	sessionID := h.middleware.GetSessionID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	page := view.Page{
		State:      entity.UIStateLanding,
		Confidence: h.defaultThreshold,
		RequestID:  requestID,
	}

	state, err := h.navigationService.Current(c, sessionID)
	if err != nil {
		page.Error = "Your session could not be loaded, showing the home page."
		return ctx.Status(fiber.StatusInternalServerError).Render(page.Template(), page)
	}

	page.State = state
	return ctx.Render(page.Template(), page)
}

// NavigateForm handles the view buttons. The browser is sent back to / so a
// reload never repeats the post.
func (h *NavigationHandler) NavigateForm(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	sessionID := h.middleware.GetSessionID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	var req navigation.NavigateRequest
	if err := ctx.BodyParser(&req); err != nil {
		req.Target = ""
	}

	target, ok := entity.ParseUIState(req.Target)
	if !ok {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"target":     req.Target,
		}).Warn("Unknown navigation target")

		page := view.Page{
			State:      entity.UIStateLanding,
			Confidence: h.defaultThreshold,
			RequestID:  requestID,
			Error:      "Unknown page.",
		}
		if current, err := h.navigationService.Current(c, sessionID); err == nil {
			page.State = current
		}
		return ctx.Status(fiber.StatusBadRequest).Render(page.Template(), page)
	}

	if _, err := h.navigationService.Navigate(c, sessionID, target); err != nil {
		return handlerUtil.New(h.log).Handle(ctx, requestID, err, ctx.Path(), "navigate")
	}

	return ctx.Redirect("/", fiber.StatusSeeOther)
}

func (h *NavigationHandler) GetSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	sessionID := h.middleware.GetSessionID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	state, err := h.navigationService.Current(c, sessionID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_session")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, sessionResponse(state))
}

func (h *NavigationHandler) Navigate(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	sessionID := h.middleware.GetSessionID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req navigation.NavigateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, navigation.ErrBadRequest, ctx.Path(), "parse_request_body")
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.Handle(ctx, requestID, navigation.ErrUnknownPage, ctx.Path(), "validate_target")
	}

	target, _ := entity.ParseUIState(req.Target)

	state, err := h.navigationService.Navigate(c, sessionID, target)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "navigate")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"state":      state.String(),
	}).Debug("Session navigated")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, sessionResponse(state))
}

func sessionResponse(state entity.UIState) navigation.SessionResponse {
	next := state.Transitions()
	names := make([]string, len(next))
	for i, s := range next {
		names[i] = s.String()
	}
	return navigation.SessionResponse{
		State:       state.String(),
		Transitions: names,
	}
}
