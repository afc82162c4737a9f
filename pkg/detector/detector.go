// Package detector wraps the pretrained focus-detection model. The model is a
// black box: callers hand it an imagebuf.Buffer and a confidence threshold and
// get back labelled boxes plus an annotated copy of the image.
package detector

import (
	"FocusDetect/internal/entity"
	"FocusDetect/pkg/imagebuf"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	BackendWebSocket = "ws"
	BackendHTTP      = "http"
	BackendONNX      = "onnx"
)

var (
	// ErrInvalidInput is returned when the image cannot be fed to the model,
	// e.g. zero size or wrong channel count.
	ErrInvalidInput = errors.New("detector: invalid input image")

	// ErrModelNotFound is returned at load time when the model artifact is missing.
	ErrModelNotFound = errors.New("detector: model artifact not found")

	// ErrBackendUnavailable is returned when the configured backend cannot be reached or built.
	ErrBackendUnavailable = errors.New("detector: backend unavailable")

	ErrUnknownBackend = errors.New("detector: unknown backend")

	// ErrUnexpectedOutput is returned when the model output does not have the
	// YOLOv8 detection head layout for the configured labels.
	ErrUnexpectedOutput = errors.New("detector: unexpected model output")
)

// Detector is loaded once per process and shared by all requests.
type Detector interface {
	// Predict returns detections whose confidence is at least threshold.
	Predict(ctx context.Context, buf *imagebuf.Buffer, threshold float64) ([]entity.Detection, error)

	// Render draws detections onto a copy of buf. The result has buf's size.
	Render(buf *imagebuf.Buffer, detections []entity.Detection) (image.Image, error)

	// Labels maps class index to class label.
	Labels() map[int]string

	Close() error
}

type Config struct {
	Backend      string
	ModelPath    string
	InferenceURL string
	WebSocketURL string
	Labels       []string
	NMSThreshold float64
	InputSize    int
	Timeout      time.Duration
}

func DefaultConfig() Config {
	return Config{
		Backend:      BackendWebSocket,
		ModelPath:    "./models/best.onnx",
		InferenceURL: "http://localhost:5000",
		WebSocketURL: "ws://localhost:5000/ws/predict",
		Labels:       []string{entity.LabelFocus, entity.LabelUnfocus},
		NMSThreshold: 0.45,
		InputSize:    640,
		Timeout:      30 * time.Second,
	}
}

// New builds the configured backend and verifies it is usable. Any error is
// meant to abort process start.
func New(cfg Config, log *logrus.Logger) (Detector, error) {
	if len(cfg.Labels) == 0 {
		cfg.Labels = DefaultConfig().Labels
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	switch strings.ToLower(cfg.Backend) {
	case BackendWebSocket, "":
		return newWebSocketDetector(cfg, log)
	case BackendHTTP:
		return newHTTPDetector(cfg, log)
	case BackendONNX:
		return newONNXDetector(cfg, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

func ValidateInput(buf *imagebuf.Buffer) error {
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// checkOutputShape validates a [1, 4+classes, anchors] output tensor.
func checkOutputShape(sizes []int, classes int) error {
	if len(sizes) != 3 || sizes[0] != 1 {
		return fmt.Errorf("%w: shape %v, want [1 %d N]", ErrUnexpectedOutput, sizes, 4+classes)
	}
	if sizes[1] <= 4 || sizes[2] <= 0 {
		return fmt.Errorf("%w: shape %v has no class scores", ErrUnexpectedOutput, sizes)
	}
	if classes > 0 && sizes[1]-4 != classes {
		return fmt.Errorf("%w: model has %d classes, %d labels configured", ErrUnexpectedOutput, sizes[1]-4, classes)
	}
	return nil
}

func labelMap(labels []string) map[int]string {
	m := make(map[int]string, len(labels))
	for i, l := range labels {
		m[i] = strings.TrimSpace(l)
	}
	return m
}

func copyLabels(m map[int]string) map[int]string {
	out := make(map[int]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func labelFor(labels map[int]string, classID int, fallback string) string {
	if l, ok := labels[classID]; ok && l != "" {
		return l
	}
	if fallback != "" {
		return fallback
	}
	return fmt.Sprintf("class_%d", classID)
}

// keepAtLeast drops detections under threshold and clamps boxes to the image.
// Remote backends are not trusted to honour the threshold they were sent.
func keepAtLeast(dets []entity.Detection, threshold float64, bounds image.Rectangle) []entity.Detection {
	out := make([]entity.Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence < threshold {
			continue
		}
		r := image.Rect(d.Box.X, d.Box.Y, d.Box.X+d.Box.Width, d.Box.Y+d.Box.Height).Intersect(bounds)
		if r.Empty() {
			continue
		}
		d.Box = entity.BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
		out = append(out, d)
	}
	return out
}
