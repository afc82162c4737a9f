package detectionService

import (
	"FocusDetect/internal/api/detection"
	"FocusDetect/internal/entity"
	contextPkg "FocusDetect/pkg/context"
	"FocusDetect/pkg/detector"
	"FocusDetect/pkg/imagebuf"
	"FocusDetect/pkg/response"
	"FocusDetect/pkg/utils"
	"context"
	"errors"
	"math"
	"mime/multipart"

	"github.com/sirupsen/logrus"
)

func (s *detectionService) IngestUpload(ctx context.Context, file *multipart.FileHeader) (*detection.Image, error) {
	return s.ingest(ctx, NewUploadSource(file, s.utils, s.stager))
}

func (s *detectionService) IngestCapture(ctx context.Context, frame []byte) (*detection.Image, error) {
	return s.ingest(ctx, NewCaptureSource(frame))
}

func (s *detectionService) IngestBase64(ctx context.Context, payload string) (*detection.Image, error) {
	frame, err := s.utils.DecodeBase64Image(payload)
	if err != nil {
		return nil, s.ingestError(ctx, "capture", err)
	}
	return s.ingest(ctx, NewCaptureSource(frame))
}

func (s *detectionService) ingest(ctx context.Context, src Source) (*detection.Image, error) {
	img, err := src.Ingest(ctx)
	if err != nil {
		return nil, s.ingestError(ctx, src.Kind(), err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"source":     src.Kind(),
		"mime":       img.Buffer.MIME(),
		"width":      img.Buffer.Width(),
		"height":     img.Buffer.Height(),
	}).Debug("Image ingested")

	return img, nil
}

// ingestError maps package errors from utils, staging and imagebuf to the
// detection error taxonomy.
func (s *detectionService) ingestError(ctx context.Context, kind string, err error) error {
	fields := logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"source":     kind,
		"error":      err.Error(),
	}

	var mapped error
	switch {
	case errors.Is(err, utils.ErrNoFile), errors.Is(err, imagebuf.ErrEmptyImage):
		mapped = detection.ErrNoImage
	case errors.Is(err, utils.ErrFileTooLarge):
		mapped = detection.ErrFileTooLarge
	case errors.Is(err, imagebuf.ErrTooManyPixels):
		mapped = response.WithDetail(detection.ErrImageTooLarge, err.Error())
	case errors.Is(err, utils.ErrUnsupportedExtension), errors.Is(err, imagebuf.ErrUnsupportedFormat):
		mapped = response.WithDetail(detection.ErrUnsupportedFormat, err.Error())
	case errors.Is(err, utils.ErrInvalidBase64), errors.Is(err, imagebuf.ErrDecode):
		mapped = detection.ErrInvalidImage
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return err
	default:
		s.log.WithFields(fields).Error("Failed to ingest image")
		return detection.ErrInternalServerError
	}

	s.log.WithFields(fields).Warn("Rejected image")
	return mapped
}

// Detect runs the detector and its renderer over buf. The buffer is handed to
// the detector as is.
func (s *detectionService) Detect(ctx context.Context, buf *imagebuf.Buffer, threshold float64) (*detection.Result, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, detection.ErrInvalidConfidence
	}

	detections, err := s.detector.Predict(ctx, buf, threshold)
	if err != nil {
		return nil, s.detectorError(requestID, "predict", err)
	}

	annotated, err := s.detector.Render(buf, detections)
	if err != nil {
		return nil, s.detectorError(requestID, "render", err)
	}

	if annotated.Bounds().Size() != buf.Bounds().Size() {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"input":      buf.Bounds().Size().String(),
			"annotated":  annotated.Bounds().Size().String(),
		}).Error("Renderer changed image size")
		return nil, detection.ErrInternalServerError
	}

	summary := entity.Summarize(detections)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"threshold":  threshold,
		"total":      summary.Total,
		"focus":      summary.Focus(),
		"unfocus":    summary.Unfocus(),
	}).Info("Detection complete")

	return &detection.Result{
		Detections: detections,
		Summary:    summary,
		Annotated:  annotated,
		Threshold:  threshold,
	}, nil
}

func (s *detectionService) detectorError(requestID, stage string, err error) error {
	fields := logrus.Fields{
		"request_id": requestID,
		"stage":      stage,
		"error":      err.Error(),
	}

	switch {
	case errors.Is(err, detector.ErrInvalidInput):
		s.log.WithFields(fields).Warn("Detector rejected input")
		return response.WithDetail(detection.ErrDetectionFailed, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.log.WithFields(fields).Warn("Detection interrupted")
		return err
	}

	s.log.WithFields(fields).Error("Detector fault")
	return detection.ErrInternalServerError
}
