package detector

import (
	"FocusDetect/internal/entity"
	"FocusDetect/pkg/imagebuf"
	"context"
	"image"
	"sync"
)

// Mock is a Detector whose output is set by the caller. It applies the
// threshold and draws with the shared Overlay, so it behaves like a real
// backend that happens to always see the same objects.
type Mock struct {
	mu         sync.Mutex
	detections []entity.Detection
	err        error
	renderErr  error
	calls      int
	labels     map[int]string
	overlay    *Overlay
}

func NewMock(labels ...string) *Mock {
	if len(labels) == 0 {
		labels = DefaultConfig().Labels
	}
	return &Mock{
		labels:  labelMap(labels),
		overlay: NewOverlay(),
	}
}

// SetDetections sets what Predict returns before threshold filtering.
func (m *Mock) SetDetections(dets []entity.Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detections = append([]entity.Detection(nil), dets...)
}

// SetError makes Predict fail with err.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetRenderError makes Render fail with err.
func (m *Mock) SetRenderError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renderErr = err
}

// Calls is the number of Predict invocations so far.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *Mock) Predict(ctx context.Context, buf *imagebuf.Buffer, threshold float64) ([]entity.Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if err := ValidateInput(buf); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}

	dets := make([]entity.Detection, len(m.detections))
	for i, d := range m.detections {
		d.Label = labelFor(m.labels, d.ClassID, d.Label)
		dets[i] = d
	}
	return keepAtLeast(dets, threshold, buf.Bounds()), nil
}

func (m *Mock) Render(buf *imagebuf.Buffer, detections []entity.Detection) (image.Image, error) {
	m.mu.Lock()
	renderErr := m.renderErr
	m.mu.Unlock()

	if renderErr != nil {
		return nil, renderErr
	}
	return m.overlay.Draw(buf, detections)
}

func (m *Mock) Labels() map[int]string {
	return copyLabels(m.labels)
}

func (m *Mock) Close() error {
	return nil
}

// ClassroomDetections is a fixed scene of three students at mixed confidence,
// laid out for a 640x480 frame.
func ClassroomDetections() []entity.Detection {
	return []entity.Detection{
		{Box: entity.BoundingBox{X: 40, Y: 120, Width: 140, Height: 200}, ClassID: 0, Confidence: 0.91},
		{Box: entity.BoundingBox{X: 250, Y: 110, Width: 130, Height: 210}, ClassID: 1, Confidence: 0.62},
		{Box: entity.BoundingBox{X: 450, Y: 130, Width: 150, Height: 190}, ClassID: 0, Confidence: 0.28},
	}
}
