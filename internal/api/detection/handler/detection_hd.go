package detectionHandler

import (
	"FocusDetect/internal/api/detection"
	contextPkg "FocusDetect/pkg/context"
	"FocusDetect/pkg/handlerUtil"
	"FocusDetect/pkg/log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *DetectionHandler) Detect(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing detection request")

	var (
		img       *detection.Image
		threshold float64
		err       error
	)

	if strings.HasPrefix(string(ctx.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		threshold, err = h.parseThreshold(ctx.FormValue("confidence"))
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_confidence")
		}

		file, _ := ctx.FormFile("image")
		if file != nil {
			h.log.WithFields(log.Fields{
				"request_id": requestID,
				"path":       ctx.Path(),
				"file_name":  file.Filename,
				"file_size":  file.Size,
			}).Debug("Processing file upload")
		}

		img, err = h.detectionService.IngestUpload(c, file)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "ingest_upload")
		}
	} else {
		var req detection.DetectRequest
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, detection.ErrBadRequest, ctx.Path(), "parse_request_body")
		}

		if err := h.validator.Struct(req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}

		threshold = h.detectionService.DefaultThreshold()
		if req.Confidence != nil {
			threshold = *req.Confidence
		}

		img, err = h.detectionService.IngestBase64(c, req.ImageBase64)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "ingest_base64")
		}
	}

	res, err := h.detectionService.Detect(c, img.Buffer, threshold)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "detect")
	}

	resp, err := h.toResponse(img, res)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "encode_annotated")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"total":      res.Summary.Total,
			"focus":      res.Summary.Focus(),
			"unfocus":    res.Summary.Unfocus(),
		}).Info("Detection successful")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}

func (h *DetectionHandler) Labels(ctx *fiber.Ctx) error {
	return handlerUtil.New(h.log).HandleSuccess(ctx, fiber.StatusOK, detection.LabelsResponse{
		Labels: h.detectionService.Labels(),
	})
}
