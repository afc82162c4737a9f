package detectionHandler

import (
	"FocusDetect/internal/api/detection"
	"FocusDetect/internal/entity"
	"FocusDetect/pkg/imagebuf"
	"math"
	"strconv"
	"strings"
)

// parseThreshold reads an optional confidence value. Empty means the
// service default.
func (h *DetectionHandler) parseThreshold(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h.detectionService.DefaultThreshold(), nil
	}

	t, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(t) || t < 0 || t > 1 {
		return 0, detection.ErrInvalidConfidence
	}
	return t, nil
}

func (h *DetectionHandler) annotatedDataURI(res *detection.Result) (string, error) {
	data, err := imagebuf.EncodeImage(res.Annotated, imagebuf.MIMEPNG)
	if err != nil {
		return "", err
	}
	return h.utils.EncodeDataURI(imagebuf.MIMEPNG, data), nil
}

func (h *DetectionHandler) toResponse(img *detection.Image, res *detection.Result) (detection.DetectResponse, error) {
	uri, err := h.annotatedDataURI(res)
	if err != nil {
		return detection.DetectResponse{}, err
	}

	dets := res.Detections
	if dets == nil {
		dets = []entity.Detection{}
	}

	return detection.DetectResponse{
		Detections:     dets,
		Summary:        res.Summary,
		Threshold:      res.Threshold,
		Width:          img.Buffer.Width(),
		Height:         img.Buffer.Height(),
		AnnotatedImage: uri,
	}, nil
}
