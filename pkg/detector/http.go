package detector

import (
	"FocusDetect/internal/entity"
	"FocusDetect/pkg/imagebuf"
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// wireDetection is one box as returned by the inference service.
type wireDetection struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	ClassID    int     `json:"class_id"`
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

type wirePrediction struct {
	Detections []wireDetection `json:"detections"`
	Error      string          `json:"error,omitempty"`
	Code       string          `json:"code,omitempty"`
}

// replyCodeInvalidInput marks an error reply caused by the submitted image.
const replyCodeInvalidInput = "invalid_input"

// replyError turns an error reply into ErrInvalidInput only when the service
// blames the image. Anything else is a fault on the service side.
func replyError(p wirePrediction) error {
	if p.Code == replyCodeInvalidInput {
		return fmt.Errorf("%w: %s", ErrInvalidInput, p.Error)
	}
	if p.Code != "" {
		return fmt.Errorf("inference service error (%s): %s", p.Code, p.Error)
	}
	return fmt.Errorf("inference service error: %s", p.Error)
}

// httpDetector posts each image to an inference service hosting the model.
type httpDetector struct {
	baseURL string
	client  *http.Client
	labels  map[int]string
	overlay *Overlay
	log     *logrus.Logger
}

func newHTTPDetector(cfg Config, log *logrus.Logger) (*httpDetector, error) {
	d := &httpDetector{
		baseURL: strings.TrimRight(cfg.InferenceURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		labels:  labelMap(cfg.Labels),
		overlay: NewOverlay(),
		log:     log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := d.CheckHealth(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"url":    d.baseURL,
			"labels": cfg.Labels,
		}).Info("HTTP inference backend ready")
	}

	return d, nil
}

func (d *httpDetector) Predict(ctx context.Context, buf *imagebuf.Buffer, threshold float64) ([]entity.Detection, error) {
	if err := ValidateInput(buf); err != nil {
		return nil, err
	}

	payload, err := buf.Encode(imagebuf.MIMEJPEG)
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(payload)); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.WriteField("conf", strconv.FormatFloat(threshold, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("write conf field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var result wirePrediction
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, result.Error)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	return toDetections(result.Detections, d.labels, threshold, buf.Bounds()), nil
}

func (d *httpDetector) Render(buf *imagebuf.Buffer, detections []entity.Detection) (image.Image, error) {
	return d.overlay.Draw(buf, detections)
}

func (d *httpDetector) Labels() map[int]string {
	return copyLabels(d.labels)
}

// CheckHealth verifies the inference service answers on /health.
func (d *httpDetector) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ml service unhealthy: %d", resp.StatusCode)
	}

	return nil
}

func (d *httpDetector) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

func toDetections(wire []wireDetection, labels map[int]string, threshold float64, bounds image.Rectangle) []entity.Detection {
	dets := make([]entity.Detection, 0, len(wire))
	for _, w := range wire {
		dets = append(dets, entity.Detection{
			Box:        entity.BoundingBox{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height},
			ClassID:    w.ClassID,
			Label:      labelFor(labels, w.ClassID, w.Class),
			Confidence: w.Confidence,
		})
	}
	return keepAtLeast(dets, threshold, bounds)
}
