package detectionHandler

import (
	"FocusDetect/internal/api/detection"
	"FocusDetect/internal/entity"
	"FocusDetect/internal/view"
	contextPkg "FocusDetect/pkg/context"
	"FocusDetect/pkg/log"
	"FocusDetect/pkg/response"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// UploadPage handles the file picker form and renders the Upload view with
// the original and annotated images.
func (h *DetectionHandler) UploadPage(ctx *fiber.Ctx) error {
	page := h.newPage(ctx, entity.UIStateUpload)
	if handled, err := h.gate(ctx, page); handled {
		return err
	}

	threshold, err := h.parseThreshold(ctx.FormValue("confidence"))
	if err != nil {
		return h.renderError(ctx, page, err)
	}
	page.Confidence = threshold

	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	// A missing file part is reported by the ingest step as ErrNoImage.
	file, _ := ctx.FormFile("image")

	img, err := h.detectionService.IngestUpload(c, file)
	if err != nil {
		return h.renderError(ctx, page, err)
	}

	return h.renderResult(ctx, c, page, img, threshold)
}

// WebcamPage handles one captured frame, sent either as a multipart file or
// as the data URL produced by the browser canvas.
func (h *DetectionHandler) WebcamPage(ctx *fiber.Ctx) error {
	page := h.newPage(ctx, entity.UIStateWebcam)
	if handled, err := h.gate(ctx, page); handled {
		return err
	}

	threshold, err := h.parseThreshold(ctx.FormValue("confidence"))
	if err != nil {
		return h.renderError(ctx, page, err)
	}
	page.Confidence = threshold

	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	var img *detection.Image
	if file, ferr := ctx.FormFile("frame"); ferr == nil {
		frame, rerr := readFrame(file)
		if rerr != nil {
			return h.renderError(ctx, page, rerr)
		}
		img, err = h.detectionService.IngestCapture(c, frame)
	} else {
		img, err = h.detectionService.IngestBase64(c, ctx.FormValue("image_base64"))
	}
	if err != nil {
		return h.renderError(ctx, page, err)
	}

	return h.renderResult(ctx, c, page, img, threshold)
}

// viewActive reports whether the session is currently on want.
func (h *DetectionHandler) viewActive(ctx *fiber.Ctx, want entity.UIState) (bool, error) {
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), sessionTimeout)
	defer cancel()

	state, err := h.navigation.Current(c, h.middleware.GetSessionID(ctx))
	if err != nil {
		return false, err
	}
	return state == want, nil
}

// gate only lets a page ingest an image while the session is on that page.
// Otherwise the browser is sent back to / to see its current view.
func (h *DetectionHandler) gate(ctx *fiber.Ctx, page view.Page) (bool, error) {
	active, err := h.viewActive(ctx, page.State)
	if err != nil {
		page.State = entity.UIStateLanding
		return true, h.renderError(ctx, page, err)
	}
	if active {
		return false, nil
	}

	h.log.WithFields(log.Fields{
		"request_id": page.RequestID,
		"path":       ctx.Path(),
		"view":       page.State.String(),
	}).Info("Ingestion view not open, redirecting")

	return true, ctx.Redirect("/", fiber.StatusSeeOther)
}

func readFrame(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *DetectionHandler) newPage(ctx *fiber.Ctx, state entity.UIState) view.Page {
	return view.Page{
		State:      state,
		Confidence: h.detectionService.DefaultThreshold(),
		RequestID:  h.middleware.GetRequestID(ctx),
	}
}

// renderResult always shows the original image. The annotated image is only
// added when detection succeeded; otherwise a notice explains why.
func (h *DetectionHandler) renderResult(ctx *fiber.Ctx, c context.Context, page view.Page, img *detection.Image, threshold float64) error {
	result := &view.Result{
		OriginalURI: template.URL(h.utils.EncodeDataURI(img.Buffer.MIME(), img.Raw)),
		Width:       img.Buffer.Width(),
		Height:      img.Buffer.Height(),
	}
	page.Result = result

	res, err := h.detectionService.Detect(c, img.Buffer, threshold)
	if err != nil {
		result.Notice = h.notice(ctx, page.RequestID, err, "detect")
		return h.render(ctx, statusOf(err), page)
	}

	uri, err := h.annotatedDataURI(res)
	if err != nil {
		result.Notice = h.notice(ctx, page.RequestID, err, "encode_annotated")
		return h.render(ctx, fiber.StatusInternalServerError, page)
	}

	result.AnnotatedURI = template.URL(uri)
	result.Summary = res.Summary
	result.Detections = res.Detections

	h.log.WithFields(log.Fields{
		"request_id": page.RequestID,
		"path":       ctx.Path(),
		"total":      res.Summary.Total,
	}).Info("Detection page rendered")

	return h.render(ctx, fiber.StatusOK, page)
}

func (h *DetectionHandler) renderError(ctx *fiber.Ctx, page view.Page, err error) error {
	page.Error = h.notice(ctx, page.RequestID, err, "ingest")
	return h.render(ctx, statusOf(err), page)
}

func (h *DetectionHandler) render(ctx *fiber.Ctx, status int, page view.Page) error {
	return ctx.Status(status).Render(page.Template(), page)
}

// notice turns err into text for the page. Internal errors are logged with a
// trace id that is shown to the user instead of the cause.
func (h *DetectionHandler) notice(ctx *fiber.Ctx, requestID string, err error, operation string) string {
	var respErr *response.Error
	if errors.As(err, &respErr) && respErr.Code < http.StatusInternalServerError {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"operation":  operation,
			"error":      err.Error(),
		}).Warn("Request rejected")

		if errors.Is(err, detection.ErrDetectionFailed) {
			return "Detection failed: the image could not be processed by the model."
		}
		return capitalize(respErr.Message()) + "."
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "Detection timed out. Please try again."
	}

	traceID := log.ErrorWithTraceID(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"operation":  operation,
		"error":      err.Error(),
	}, "Detection request failed")
	return fmt.Sprintf("Something went wrong while analysing the image (reference %s).", traceID)
}

func statusOf(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusRequestTimeout
	}
	return response.StatusOf(err)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
